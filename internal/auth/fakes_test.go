// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/pkg/uuidv7"
)

// testSecret signs every token issued by the test codec.
const testSecret = "unit-test-signing-secret"

// # In-Memory Stores
//
// The fakes mirror the store contracts closely enough to exercise the
// resolver, the lifecycle service, and the middleware without a database.
// Rotation keeps the same first-writer-wins and rollback-on-failure
// semantics as the real transaction.

type fakeUserStore struct {
	users map[string]*auth.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*auth.User{}}
}

func (store *fakeUserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := store.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return user, nil
}

func (store *fakeUserStore) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	for _, user := range store.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (store *fakeUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, user := range store.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (store *fakeUserStore) Create(_ context.Context, user *auth.User) error {
	store.users[user.ID] = user
	return nil
}

type fakeCredentialStore struct {
	credentials map[string]*auth.Credential

	// failInstall makes the install half of Rotate fail, leaving the
	// retired credential untouched.
	failInstall bool
}

func newFakeCredentialStore() *fakeCredentialStore {
	return &fakeCredentialStore{credentials: map[string]*auth.Credential{}}
}

func (store *fakeCredentialStore) FindActiveByUser(_ context.Context, userID string, kind auth.CredentialKind) (*auth.Credential, error) {
	for _, credential := range store.credentials {
		if credential.UserID == userID && credential.Kind == kind && credential.Active {
			return credential, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (store *fakeCredentialStore) FindByID(_ context.Context, id string) (*auth.Credential, error) {
	credential, ok := store.credentials[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return credential, nil
}

func (store *fakeCredentialStore) Create(_ context.Context, credential *auth.Credential) error {
	store.credentials[credential.ID] = credential
	return nil
}

func (store *fakeCredentialStore) Update(_ context.Context, credential *auth.Credential) error {
	if _, ok := store.credentials[credential.ID]; !ok {
		return auth.ErrNotFound
	}
	store.credentials[credential.ID] = credential
	return nil
}

func (store *fakeCredentialStore) Rotate(_ context.Context, retired *auth.Credential, replacement *auth.Credential) error {
	stored, ok := store.credentials[retired.ID]
	if !ok || !stored.Active {
		return auth.ErrNotFound
	}

	if store.failInstall {
		// Nothing was mutated yet; the rollback leaves the old credential active.
		return errors.New("fake_credential_store_install_failed")
	}

	now := time.Now()
	stored.Active = false
	stored.ExpiresAt = now
	stored.UpdatedAt = now
	store.credentials[replacement.ID] = replacement

	retired.Active = false
	retired.ExpiresAt = now
	retired.UpdatedAt = now
	return nil
}

// activeCount reports how many active credentials the user holds.
func (store *fakeCredentialStore) activeCount(userID string) int {
	count := 0
	for _, credential := range store.credentials {
		if credential.UserID == userID && credential.Active {
			count++
		}
	}
	return count
}

type fakeWebSessionStore struct {
	sessions map[string]map[string]string
}

func newFakeWebSessionStore() *fakeWebSessionStore {
	return &fakeWebSessionStore{sessions: map[string]map[string]string{}}
}

func (store *fakeWebSessionStore) Set(_ context.Context, sessionID, key, value string, _ time.Duration) error {
	values, ok := store.sessions[sessionID]
	if !ok {
		values = map[string]string{}
		store.sessions[sessionID] = values
	}
	values[key] = value
	return nil
}

func (store *fakeWebSessionStore) Values(_ context.Context, sessionID string) (map[string]string, error) {
	values, ok := store.sessions[sessionID]
	if !ok {
		return nil, auth.ErrNotFound
	}
	return values, nil
}

func (store *fakeWebSessionStore) Delete(_ context.Context, sessionID string) error {
	delete(store.sessions, sessionID)
	return nil
}

// # Fixture Builders

func newTestCodec(t *testing.T) *auth.TokenCodec {
	t.Helper()
	codec, err := auth.NewTokenCodec(testSecret)
	require.NoError(t, err)
	return codec
}

func newTestUser(username string) *auth.User {
	return &auth.User{
		ID:       uuidv7.New(),
		Username: username,
		Email:    username + "@example.com",
		Slug:     username,
		Role:     auth.RoleUser,
	}
}

func newTestCredential(t *testing.T, userID, password string) *auth.Credential {
	t.Helper()
	secret, err := auth.HashPassword(password)
	require.NoError(t, err)

	return &auth.Credential{
		ID:        uuidv7.New(),
		UserID:    userID,
		Kind:      auth.KindPassword,
		Secret:    secret,
		Active:    true,
		ExpiresAt: time.Now().Add(auth.CredentialTTL),
	}
}

// requireKind asserts that err is an authentication taxonomy error of the
// given dotted kind.
func requireKind(t *testing.T, err error, kind string) *auth.Error {
	t.Helper()
	var typed *auth.Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, kind, typed.Kind)
	return typed
}
