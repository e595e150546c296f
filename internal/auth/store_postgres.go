// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// # User Store

// PostgresUserStore implements the UserStore interface using pgx.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore.
func NewUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

/*
Create persists a new user record into the users.account table.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (store *PostgresUserStore) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, slug, role, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.Slug,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_user_store_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresUserStore) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, username, email, slug, role, createdat, updatedat
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user := &User{}
	err := store.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Slug,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_user_store_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByUsername retrieves a user record by their unique username.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresUserStore) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, email, slug, role, createdat, updatedat
		FROM users.account
		WHERE username = $1 AND deletedat IS NULL`

	user := &User{}
	err := store.pool.QueryRow(context, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Slug,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_user_store_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresUserStore) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, username, email, slug, role, createdat, updatedat
		FROM users.account
		WHERE email = $1 AND deletedat IS NULL`

	user := &User{}
	err := store.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Slug,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_user_store_find_by_email_failed: %w", err)
	}

	return user, nil
}

// # Credential Store

// PostgresCredentialStore implements the CredentialStore interface using pgx.
type PostgresCredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore creates a new PostgreSQL implementation of the CredentialStore.
func NewCredentialStore(pool *pgxpool.Pool) *PostgresCredentialStore {
	return &PostgresCredentialStore{pool: pool}
}

const credentialColumns = "id, userid, kind, secret, active, expiresat, createdat, updatedat"

// scanCredential hydrates a credential from a pgx row.
func scanCredential(row pgx.Row) (*Credential, error) {
	credential := &Credential{}
	err := row.Scan(
		&credential.ID,
		&credential.UserID,
		&credential.Kind,
		&credential.Secret,
		&credential.Active,
		&credential.ExpiresAt,
		&credential.CreatedAt,
		&credential.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return credential, nil
}

/*
FindActiveByUser retrieves the single active credential of a kind for a user.

Parameters:
  - context: context.Context
  - userID: string
  - kind: CredentialKind

Returns:
  - *Credential: Hydrated entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresCredentialStore) FindActiveByUser(context context.Context, userID string, kind CredentialKind) (*Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM users.credential
		WHERE userid = $1 AND kind = $2 AND active = TRUE`

	credential, err := scanCredential(store.pool.QueryRow(context, query, userID, kind))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_credential_store_find_active_failed: %w", err)
	}

	return credential, nil
}

/*
FindByID retrieves a credential by its primary key, active or not.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Credential: Hydrated entity
  - error: ErrNotFound or execution errors
*/
func (store *PostgresCredentialStore) FindByID(context context.Context, id string) (*Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM users.credential
		WHERE id = $1`

	credential, err := scanCredential(store.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_credential_store_find_by_id_failed: %w", err)
	}

	return credential, nil
}

/*
Create persists a new credential record into the users.credential table.

Parameters:
  - context: context.Context
  - credential: *Credential

Returns:
  - error: Constraint violations or connectivity errors
*/
func (store *PostgresCredentialStore) Create(context context.Context, credential *Credential) error {
	const query = `
		INSERT INTO users.credential (
			id, userid, kind, secret, active, expiresat, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now()
	if credential.CreatedAt.IsZero() {
		credential.CreatedAt = now
	}
	credential.UpdatedAt = now

	_, err := store.pool.Exec(context, query,
		credential.ID,
		credential.UserID,
		credential.Kind,
		credential.Secret,
		credential.Active,
		credential.ExpiresAt,
		credential.CreatedAt,
		credential.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_credential_store_create_failed: %w", err)
	}

	return nil
}

/*
Update persists the mutable fields of an existing credential.

Parameters:
  - context: context.Context
  - credential: *Credential

Returns:
  - error: Execution errors
*/
func (store *PostgresCredentialStore) Update(context context.Context, credential *Credential) error {
	const query = `
		UPDATE users.credential
		SET active = $2, expiresat = $3, updatedat = $4
		WHERE id = $1`

	credential.UpdatedAt = time.Now()
	_, err := store.pool.Exec(context, query,
		credential.ID,
		credential.Active,
		credential.ExpiresAt,
		credential.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_credential_store_update_failed: %w", err)
	}

	return nil
}

/*
Rotate atomically retires a credential and installs its replacement.

Description: Both writes execute inside one transaction. The deactivation
only succeeds if the retired credential is still active, which makes
concurrent rotations of the same credential first-writer-wins: the loser
observes ErrNotFound and the store never holds two active credentials.
A failed insert rolls the deactivation back, so a partial rotation can
never lock the user out.

Parameters:
  - context: context.Context
  - retired: *Credential (must currently be active)
  - replacement: *Credential (freshly built, active)

Returns:
  - error: ErrNotFound on concurrent rotation, transaction failures otherwise
*/
func (store *PostgresCredentialStore) Rotate(context context.Context, retired *Credential, replacement *Credential) error {
	transaction, err := store.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_credential_store_rotate_begin_failed: %w", err)
	}
	// Rollback is a no-op once the transaction has committed.
	defer func() { _ = transaction.Rollback(context) }()

	now := time.Now()

	// 1. Retire the current credential. Stamping expiresat to the rotation
	// instant ensures already-issued tokens referencing it die at their
	// next resolution, not just new lookups.
	const retireQuery = `
		UPDATE users.credential
		SET active = FALSE, expiresat = $2, updatedat = $2
		WHERE id = $1 AND active = TRUE`

	tag, err := transaction.Exec(context, retireQuery, retired.ID, now)
	if err != nil {
		return fmt.Errorf("postgres_credential_store_rotate_retire_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Another request already rotated this credential.
		return ErrNotFound
	}

	// 2. Install the replacement inside the same transaction.
	const installQuery = `
		INSERT INTO users.credential (
			id, userid, kind, secret, active, expiresat, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = now
	}
	replacement.UpdatedAt = now

	_, err = transaction.Exec(context, installQuery,
		replacement.ID,
		replacement.UserID,
		replacement.Kind,
		replacement.Secret,
		replacement.Active,
		replacement.ExpiresAt,
		replacement.CreatedAt,
		replacement.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_credential_store_rotate_install_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_credential_store_rotate_commit_failed: %w", err)
	}

	// Reflect the retirement in the caller's copy only after the commit.
	retired.Active = false
	retired.ExpiresAt = now
	retired.UpdatedAt = now

	return nil
}
