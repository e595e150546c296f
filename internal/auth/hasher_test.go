// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/auth"
)

/*
TestHashPassword_RoundTrip verifies hashing and verification agree.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("tronlives")
	require.NoError(t, err)

	assert.NotEqual(t, "tronlives", hash)
	assert.True(t, auth.VerifyPassword(hash, "tronlives"))
	assert.False(t, auth.VerifyPassword(hash, "tron lives"))
	assert.False(t, auth.VerifyPassword(hash, ""))
}

/*
TestHashPassword_Salted verifies two hashes of the same password differ.
*/
func TestHashPassword_Salted(t *testing.T) {
	first, err := auth.HashPassword("tronlives")
	require.NoError(t, err)

	second, err := auth.HashPassword("tronlives")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestVerifyPassword_CorruptedHash verifies that a stored value which is not
a bcrypt hash panics instead of silently denying: it signals data
corruption, not a wrong password.
*/
func TestVerifyPassword_CorruptedHash(t *testing.T) {
	assert.Panics(t, func() {
		auth.VerifyPassword("not-a-bcrypt-hash", "tronlives")
	})
}
