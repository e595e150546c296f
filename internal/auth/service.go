// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/lorekeep/lorekeep/internal/platform/apperr"
	"github.com/lorekeep/lorekeep/internal/platform/ctxutil"
	"github.com/lorekeep/lorekeep/pkg/slug"
	"github.com/lorekeep/lorekeep/pkg/uuidv7"
)

// # Credential Lifecycle

// Service orchestrates the credential lifecycle: enrollment, login, and
// atomic password rotation.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, rotation,
// or login logic must be reviewed before merging.
type Service struct {
	users       UserStore
	credentials CredentialStore
	sessions    WebSessionStore
	codec       *TokenCodec
}

// NewService constructs the lifecycle service with its collaborators.
func NewService(users UserStore, credentials CredentialStore, sessions WebSessionStore, codec *TokenCodec) *Service {
	return &Service{
		users:       users,
		credentials: credentials,
		sessions:    sessions,
		codec:       codec,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register enrolls a new member with an active password credential.

Description: Validates identity uniqueness, hashes the password, and
persists the account together with its first credential.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.users.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict error.
	_, err = service.users.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost balances security
	// against CPU utilization during registration spikes.
	secret, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable IDs keep the PG index append-mostly.
	user := &User{
		ID:       uuidv7.New(),
		Username: input.Username,
		Email:    input.Email,
		Slug:     slug.From(input.Username),
		Role:     RoleUser,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	credential := &Credential{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		Kind:      KindPassword,
		Secret:    secret,
		Active:    true,
		ExpiresAt: time.Now().Add(CredentialTTL),
	}

	if err := service.credentials.Create(context, credential); err != nil {
		return nil, fmt.Errorf("auth_service_register_credential_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines the factors for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
}

// LoginResult represents a successfully established session and the token
// asserting it.
type LoginResult struct {
	Token   string
	Session *Session
}

/*
Login validates a username/password pair and issues a session token.

Description: Resolves the account and its active password credential,
performs the constant-time hash comparison, and encodes a short-lived
session token on success.

Every failure cause — unknown user, missing credential, wrong password —
collapses into a single invalid_login error at this boundary so the
response never reveals which factor was wrong. The distinct causes are
still logged for operators.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Transport-ready token plus the established session
  - error: invalid_login or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	logger := ctxutil.GetLogger(context)

	user, err := service.users.FindByUsername(context, input.Username)
	if err != nil {
		logger.Info("login rejected", "reason", "unknown_user", "username", input.Username)
		return nil, ErrInvalidLogin().WithCause(err)
	}

	credential, err := service.credentials.FindActiveByUser(context, user.ID, KindPassword)
	if err != nil {
		logger.Info("login rejected", "reason", "no_active_credential", "user_id", user.ID)
		return nil, ErrInvalidLogin().WithCause(ErrMissingPassword(user.ID))
	}

	if credential.Expired() {
		logger.Info("login rejected", "reason", "expired_credential", "user_id", user.ID)
		return nil, ErrInvalidLogin().WithCause(ErrExpiredCredential(credential.ID))
	}

	if !VerifyPassword(credential.Secret, input.Password) {
		logger.Info("login rejected", "reason", "password_mismatch", "user_id", user.ID)
		return nil, ErrInvalidLogin().WithCause(ErrInvalidPassword())
	}

	session := NewSession(credential, user, time.Now().Add(SessionTTL))

	token, err := service.codec.Encode(session)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_encode_failed: %w", err)
	}

	return &LoginResult{Token: token, Session: session}, nil
}

// # Password Rotation

/*
RotatePassword atomically replaces the user's active password credential.

Description: Verifies the current password, then retires the old credential
and creates the new one inside a single transaction. A concurrent rotation
losing the race observes a not-found on the retire step and the whole
transaction rolls back, so the store never holds zero or two active
credentials for the user.

The retired credential's expiration is stamped to the rotation instant, so
tokens already issued against it fail with expired_credential on their next
resolution.

Parameters:
  - context: context.Context
  - user: *User
  - currentPassword: string
  - newPassword: string

Returns:
  - *Credential: The freshly activated credential
  - error: missing_password, invalid_password, or transaction failures
*/
func (service *Service) RotatePassword(context context.Context, user *User, currentPassword, newPassword string) (*Credential, error) {

	current, err := service.credentials.FindActiveByUser(context, user.ID, KindPassword)
	if err != nil {
		return nil, ErrMissingPassword(user.ID)
	}

	if !VerifyPassword(current.Secret, currentPassword) {
		return nil, ErrInvalidPassword()
	}

	secret, err := HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_rotate_hash_failed: %w", err)
	}

	replacement := &Credential{
		ID:        uuidv7.New(),
		UserID:    user.ID,
		Kind:      KindPassword,
		Secret:    secret,
		Active:    true,
		ExpiresAt: time.Now().Add(CredentialTTL),
	}

	if err := service.credentials.Rotate(context, current, replacement); err != nil {
		return nil, fmt.Errorf("auth_service_rotate_failed: %w", err)
	}

	return replacement, nil
}

// # Browser Sessions

/*
EstablishWebSession stores the issued token server-side for a browser
client and returns the opaque session identifier to set as a cookie.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Session identifier
  - error: Storage failures
*/
func (service *Service) EstablishWebSession(context context.Context, token string) (string, error) {
	sessionID := uuidv7.New()

	if err := service.sessions.Set(context, sessionID, SessionTokenKey, token, WebSessionTTL); err != nil {
		return "", fmt.Errorf("auth_service_web_session_set_failed: %w", err)
	}

	return sessionID, nil
}

/*
LoadWebSession retrieves the server-side values for a browser session.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - map[string]string: Stored values, auth_token included when logged in
  - error: ErrNotFound or storage failures
*/
func (service *Service) LoadWebSession(context context.Context, sessionID string) (map[string]string, error) {
	return service.sessions.Values(context, sessionID)
}

/*
DestroyWebSession removes a browser session. Destroying a session that is
already gone is a success (idempotent logout).

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Storage failures
*/
func (service *Service) DestroyWebSession(context context.Context, sessionID string) error {
	if err := service.sessions.Delete(context, sessionID); err != nil {
		return fmt.Errorf("auth_service_web_session_delete_failed: %w", err)
	}
	return nil
}
