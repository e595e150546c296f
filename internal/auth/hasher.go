// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// # Password Hashing

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// bcrypt salts internally, so two calls with the same input produce
// different hashes. Default cost balances security against CPU utilization
// during registration spikes.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword compares a stored bcrypt hash with a candidate password.
//
// # Failure Mode
//
// A mismatch is an expected runtime outcome and returns false. A stored
// hash that bcrypt cannot parse is corrupted data that only a programming
// or data-handling error can produce, so that narrow case panics instead
// of being folded into the mismatch branch.
func VerifyPassword(storedHash, candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate))
	if err == nil {
		return true
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false
	}

	panic(fmt.Sprintf("auth: stored password hash is corrupted: %v", err))
}
