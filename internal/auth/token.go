// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Codec

// TokenPayload is the decoded content of a signed session token.
//
// It is transient: produced by [TokenCodec.Decode] and consumed immediately
// by the session resolver.
type TokenPayload struct {
	// Subject is the credential ID the token asserts.
	Subject string

	// ExpiresAt is the embedded expiration, whole-second precision.
	ExpiresAt time.Time
}

// TokenCodec converts sessions to signed token strings and back.
//
// # Wire Format
//
// Tokens are JWTs signed with HMAC-SHA-512 and carry exactly two claims:
// "sub" (credential id) and "exp" (epoch seconds). Verifying a signature
// needs no store round-trip; only the shared secret.
type TokenCodec struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenCodec creates a codec bound to the server-held signing secret.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("auth: token signing secret must not be empty")
	}

	return &TokenCodec{
		secret: []byte(secret),
		parser: jwt.NewParser(
			// Pin the algorithm. Tokens signed with anything else — including
			// "none" — are rejected before the payload is trusted.
			jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
			// Decode claim numbers as json.Number so integer expirations can
			// be told apart from fractional ones.
			jwt.WithJSONNumber(),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Encode signs the session into a compact token string.
//
// The expiration is truncated to whole seconds; the payload carries nothing
// but the credential id and the expiry.
func (codec *TokenCodec) Encode(session *Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": session.Credential.ID,
		"exp": session.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Decode validates a token string and returns its payload.
//
// # Error Kinds
//
// Callers differentiate UX messaging on the failure, so three kinds stay
// distinct and are never collapsed:
//
//   - KindMalformedToken: empty input or a string that is not a JWT.
//   - KindExpiredToken: well-signed token whose expiration has passed.
//   - KindInvalidToken: bad signature, unexpected algorithm, or a payload
//     whose subject is not a string / expiration is not an integer.
func (codec *TokenCodec) Decode(tokenString string) (*TokenPayload, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMalformedToken()
	}

	claims := jwt.MapClaims{}
	_, err := codec.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return codec.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken().WithCause(err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken().WithCause(err)
		default:
			// Signature, algorithm, and claim-structure failures all mean the
			// token cannot be trusted.
			return nil, ErrInvalidToken().WithCause(err)
		}
	}

	// Payload shape validation: subject must be a non-empty string.
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return nil, ErrInvalidToken()
	}

	// Expiration must be an integer epoch. json.Number keeps the raw text,
	// so "1700000000.5" fails the integer parse below.
	expNumber, ok := claims["exp"].(json.Number)
	if !ok {
		return nil, ErrInvalidToken()
	}

	expSeconds, convErr := strconv.ParseInt(expNumber.String(), 10, 64)
	if convErr != nil {
		return nil, ErrInvalidToken().WithCause(convErr)
	}

	return &TokenPayload{
		Subject:   subject,
		ExpiresAt: time.Unix(expSeconds, 0),
	}, nil
}
