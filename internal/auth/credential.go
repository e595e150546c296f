// Copyright (c) 2026 Lorekeep. All rights reserved.

/*
Package auth implements the authentication and session core of Lorekeep.

It proves identity with a password-derived credential and asserts it
afterwards with a signed, time-limited token. The package owns the full
chain that gates every request:

  - Hashing: bcrypt password hash/verify.
  - Codec: signed token encode/decode (HMAC-SHA-512).
  - Strategies: pluggable token extraction from a request.
  - Resolver: token → credential → session, one shot per request.
  - Lifecycle: signup, login, and atomic password rotation.
  - Middleware: policy-driven request gating.

Catalog controllers (publishers, game systems, sources, books) are external
collaborators: they only ask "is this request authenticated, and for whom?"
and invoke credential operations on behalf of a user.
*/
package auth

import (
	"context"
	"time"

	"github.com/lorekeep/lorekeep/internal/platform/ctxkey"
)

// # Authentication Constraints

const (
	// SessionTTL is the default lifetime of an issued session token.
	// Short (15m) to limit the blast radius of a leaked token, since there
	// is no revocation list: an issued token stays valid until it expires.
	SessionTTL = 15 * time.Minute

	// CredentialTTL is the expiration horizon of a freshly created or
	// rotated password credential.
	CredentialTTL = 365 * 24 * time.Hour

	// WebSessionTTL is the server-side browser session lifetime.
	WebSessionTTL = 24 * time.Hour
)

// # User Roles

// Role is the authorization level granted to an account. The auth core
// only exposes it on the authenticated identity; enforcement belongs to
// the surrounding application.
type Role string

const (
	// Unauthenticated or probationary access
	RoleGuest Role = "guest"

	// Default role for standard registered users
	RoleUser Role = "user"

	// Can manage catalog reference data
	RoleAdmin Role = "admin"

	// Unrestricted system access
	RoleSuperadmin Role = "superadmin"
)

// # Domain Entities

// User represents a registered member of the Lorekeep catalog.
//
// The auth core only reads users; profile mutation belongs to the
// surrounding application.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Slug      string    `json:"slug"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialKind discriminates the authentication factor stored in a credential.
type CredentialKind string

const (
	// KindPassword marks a credential whose secret is a bcrypt password hash.
	KindPassword CredentialKind = "password"
)

// Credential is a persisted authentication factor bound to exactly one user.
//
// # Invariant
//
// At most one active credential of a given kind exists per user at any
// instant. The rotation transaction enforces this procedurally; a partial
// unique index in the schema backstops it.
type Credential struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Kind      CredentialKind `json:"kind"`
	Secret    string         `json:"-"` // bcrypt hash, never serialized
	Active    bool           `json:"active"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Expired reports whether the credential's expiration horizon has passed.
// A credential past its horizon is expired regardless of its Active flag.
func (c *Credential) Expired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Usable reports whether the credential can still authenticate: it must be
// both active and unexpired. Deactivation stamps the horizon to the rotation
// instant, so either check alone would usually suffice; both are kept because
// they guard different failure modes.
func (c *Credential) Usable() bool {
	return c.Active && !c.Expired()
}

// # Session

// Session is the ephemeral, per-request value representing a successfully
// authenticated actor. It is never persisted or cached across requests.
type Session struct {
	// Credential is the factor that proved the actor's identity.
	Credential *Credential `json:"-"`

	// AuthorizedUser is the credential's owner.
	AuthorizedUser *User `json:"user"`

	// AuthenticatedUser is the acting identity. It defaults to
	// AuthorizedUser and is reserved for future impersonation support.
	AuthenticatedUser *User `json:"-"`

	// ExpiresAt is the instant the session stops being valid.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession builds a Session for the given credential and owner.
//
// The session lifetime is clamped to the credential's own horizon: a token
// can never outlive the credential it asserts.
func NewSession(credential *Credential, owner *User, expiresAt time.Time) *Session {
	if credential.ExpiresAt.Before(expiresAt) {
		expiresAt = credential.ExpiresAt
	}

	return &Session{
		Credential:        credential,
		AuthorizedUser:    owner,
		AuthenticatedUser: owner,
		ExpiresAt:         expiresAt.Truncate(time.Second),
	}
}

// Expired reports whether the session's own expiration has passed.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// # Context Plumbing

// WithSession returns a new context carrying the authenticated session.
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, session)
}

// SessionFrom retrieves the authenticated session from the context.
// It returns nil for anonymous requests.
func SessionFrom(ctx context.Context) *Session {
	session, ok := ctx.Value(ctxkey.KeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldToken           = "token"
	FieldUser            = "user"
	FieldMessage         = "message"
)
