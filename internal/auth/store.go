// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a queried record does not exist.
// Callers map it to the appropriate taxonomy kind for their state.
var ErrNotFound = errors.New("auth: record not found")

// # User Data Access

// UserStore defines the read/create contract for user accounts.
//
// The auth core never mutates existing users; profile editing belongs to
// the surrounding application.
type UserStore interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUIDv7)

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given email address.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: ErrNotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error
}

// # Credential Data Access

// CredentialStore defines the data access contract for credentials.
//
// # Mutation Policy
//
// Credentials are created at signup/rotation, mutated only through this
// store, and never hard-deleted — rotation deactivates the old record.
type CredentialStore interface {

	/*
		FindActiveByUser returns the single active credential of the given
		kind for a user.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - kind: CredentialKind

		Returns:
		  - *Credential: Hydrated entity
		  - error: ErrNotFound or database retrieval failures
	*/
	FindActiveByUser(context context.Context, userID string, kind CredentialKind) (*Credential, error)

	/*
		FindByID returns the credential with the given ID, active or not.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Credential: Hydrated entity
		  - error: ErrNotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Credential, error)

	/*
		Create persists a new credential record.

		Parameters:
		  - context: context.Context
		  - credential: *Credential

		Returns:
		  - error: Constraint violations or persistence failures
	*/
	Create(context context.Context, credential *Credential) error

	/*
		Update persists changes to an existing credential record.

		Parameters:
		  - context: context.Context
		  - credential: *Credential

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, credential *Credential) error

	/*
		Rotate atomically retires one credential and installs its
		replacement.

		Description: The deactivation and the insert execute inside a single
		transaction. If either write fails, the whole rotation rolls back,
		so the store can never end up with zero active credentials (lockout)
		or two active ones (ambiguity). The deactivation also stamps the
		retired credential's expiration to the rotation instant.

		Parameters:
		  - context: context.Context
		  - retired: *Credential (the currently active credential)
		  - replacement: *Credential (freshly built, active)

		Returns:
		  - error: ErrNotFound if the retired credential was already rotated
		    by a concurrent request; transaction failures otherwise
	*/
	Rotate(context context.Context, retired *Credential, replacement *Credential) error
}

// # Browser Session Data Access

// WebSessionStore defines the contract for volatile server-side browser
// sessions, keyed by the session ID carried in the client cookie.
type WebSessionStore interface {

	/*
		Set stores a single session entry and refreshes the session TTL.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - key: string (entry name, e.g. "auth_token")
		  - value: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, sessionID, key, value string, ttl time.Duration) error

	/*
		Values returns all entries of a session.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - map[string]string: Session entries
		  - error: ErrNotFound if the session is absent or expired
	*/
	Values(context context.Context, sessionID string) (map[string]string, error)

	/*
		Delete removes a session entirely. Deleting an absent session is not
		an error (logout is idempotent).

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, sessionID string) error
}
