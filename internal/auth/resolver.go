// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
)

// # Session Resolver

// Resolver turns an inbound request into a fully-formed [Session] or a
// specific taxonomy failure.
//
// # Evaluation
//
// Resolution is a terminal, one-shot chain per request — no retries, no
// persisted intermediate state. Each step either advances or short-circuits
// with its own error kind:
//
//	locate token → decode payload → resolve credential → check credential → build session
type Resolver struct {
	codec       *TokenCodec
	credentials CredentialStore
	users       UserStore
}

// NewResolver constructs a resolver from its collaborators.
func NewResolver(codec *TokenCodec, credentials CredentialStore, users UserStore) *Resolver {
	return &Resolver{
		codec:       codec,
		credentials: credentials,
		users:       users,
	}
}

// Resolve runs the given strategies against the carrier and authenticates
// the request.
//
// # Failure Kinds
//
//   - KindMissingToken: no strategy located a token.
//   - Codec kinds (malformed/invalid/expired token): see [TokenCodec.Decode].
//   - KindMissingCredential: the token references an unknown credential.
//   - KindExpiredCredential: the credential exists but can no longer
//     authenticate. This is checked independently of the token's own
//     expiration, because a credential may have been rotated or expired
//     after the token was issued.
func (resolver *Resolver) Resolve(ctx context.Context, carrier *Carrier, strategies []Strategy) (*Session, error) {

	// 1. Locate a candidate token.
	tokenString, located := locateToken(carrier, strategies)
	if !located {
		return nil, ErrMissingToken()
	}

	// 2. Decode and validate the token. Codec errors pass through untouched
	// so callers keep the distinct kinds.
	payload, err := resolver.codec.Decode(tokenString)
	if err != nil {
		return nil, err
	}

	// 3. Resolve the referenced credential.
	credential, err := resolver.credentials.FindByID(ctx, payload.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrMissingCredential(payload.Subject)
		}
		return nil, fmt.Errorf("auth_resolver_credential_lookup_failed: %w", err)
	}

	// 4. The credential itself must still be usable.
	if !credential.Usable() {
		return nil, ErrExpiredCredential(credential.ID)
	}

	// 5. Load the credential's owner. A dangling owner reference means the
	// store's foreign keys were bypassed — an internal fault, not a client
	// authentication failure.
	owner, err := resolver.users.FindByID(ctx, credential.UserID)
	if err != nil {
		return nil, fmt.Errorf("auth_resolver_owner_lookup_failed: %w", err)
	}

	// 6. Terminal success: session expiry comes from the decoded token,
	// clamped to the credential's horizon by the constructor.
	return NewSession(credential, owner, payload.ExpiresAt), nil
}

// locateToken returns the first strategy hit, in caller-given order.
func locateToken(carrier *Carrier, strategies []Strategy) (string, bool) {
	for _, strategy := range strategies {
		if !strategy.Matches(carrier) {
			continue
		}
		if token, ok := strategy.Extract(carrier); ok {
			return token, true
		}
	}
	return "", false
}
