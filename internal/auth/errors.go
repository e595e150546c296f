// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import "net/http"

// # Error Taxonomy
//
// Authentication failures carry a dotted, machine-readable kind and a
// structured data payload. Clients dispatch UX messaging on the kind, so
// kinds are never collapsed — except at the login boundary, where the cause
// is deliberately hidden behind KindInvalidLogin to avoid leaking which
// factor was wrong.

const (
	KindMissingToken      = "authentication.errors.missing_token"
	KindMalformedToken    = "authentication.errors.malformed_token"
	KindInvalidToken      = "authentication.errors.invalid_token"
	KindExpiredToken      = "authentication.errors.expired_token"
	KindMissingCredential = "authentication.errors.missing_credential"
	KindExpiredCredential = "authentication.errors.expired_credential"
	KindMissingPassword   = "authentication.errors.missing_password"
	KindInvalidPassword   = "authentication.errors.invalid_password"
	KindInvalidLogin      = "authentication.errors.invalid_login"
)

// Error is the canonical failure type of the authentication core.
//
// It implements respond.TypedError, so handlers can pass it straight to
// respond.Error and get the {type, message, data} wire envelope.
//
// # Propagation
//
// Every layer of the core returns an *Error (or a wrapped internal error)
// explicitly; nothing panics to escape its caller. Callers decide whether
// to stop or continue.
type Error struct {
	// Kind is the dotted machine-readable error identifier.
	Kind string
	// Message is a human-readable description safe to return to the client.
	Message string
	// Data holds kind-specific fields (credential id, user id).
	Data map[string]any
	// Status is the HTTP response status code.
	Status int
	// cause is the underlying error, kept for server-side logging only.
	cause error
}

// Error implements the error interface. It returns the client-safe message.
func (e *Error) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *Error) Unwrap() error { return e.cause }

// ErrorType returns the dotted error kind.
func (e *Error) ErrorType() string { return e.Kind }

// ErrorData returns the kind-specific data payload, never nil.
func (e *Error) ErrorData() map[string]any {
	if e.Data == nil {
		return map[string]any{}
	}
	return e.Data
}

// HTTPStatus returns the HTTP status the error maps to.
func (e *Error) HTTPStatus() int { return e.Status }

// WithCause attaches an underlying error for server-side logging and
// returns the receiver for chaining. The cause never reaches the client.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// # Constructors

// ErrMissingToken indicates no strategy located a token in the request.
func ErrMissingToken() *Error {
	return &Error{
		Kind:    KindMissingToken,
		Message: "No authentication token was provided",
		Status:  http.StatusUnauthorized,
	}
}

// ErrMalformedToken indicates the token string is empty or not parseable.
func ErrMalformedToken() *Error {
	return &Error{
		Kind:    KindMalformedToken,
		Message: "The authentication token is malformed",
		Status:  http.StatusUnauthorized,
	}
}

// ErrInvalidToken indicates a bad signature, an unexpected signing
// algorithm, or a payload whose shape is wrong.
func ErrInvalidToken() *Error {
	return &Error{
		Kind:    KindInvalidToken,
		Message: "The authentication token is invalid",
		Status:  http.StatusUnauthorized,
	}
}

// ErrExpiredToken indicates the token's embedded expiration has passed.
func ErrExpiredToken() *Error {
	return &Error{
		Kind:    KindExpiredToken,
		Message: "The authentication token has expired",
		Status:  http.StatusUnauthorized,
	}
}

// ErrMissingCredential indicates the token references a credential that
// does not exist.
func ErrMissingCredential(credentialID string) *Error {
	return &Error{
		Kind:    KindMissingCredential,
		Message: "The referenced credential does not exist",
		Data:    map[string]any{"credential_id": credentialID},
		Status:  http.StatusUnauthorized,
	}
}

// ErrExpiredCredential indicates the referenced credential exists but can
// no longer authenticate (deactivated or past its horizon).
func ErrExpiredCredential(credentialID string) *Error {
	return &Error{
		Kind:    KindExpiredCredential,
		Message: "The referenced credential has expired",
		Data:    map[string]any{"credential_id": credentialID},
		Status:  http.StatusUnauthorized,
	}
}

// ErrMissingPassword indicates the user has no active password credential.
func ErrMissingPassword(userID string) *Error {
	return &Error{
		Kind:    KindMissingPassword,
		Message: "No active password is set for this account",
		Data:    map[string]any{"user_id": userID},
		Status:  http.StatusUnprocessableEntity,
	}
}

// ErrInvalidPassword indicates a password verification mismatch.
//
// This kind is internal to credential operations (e.g. rotation). The login
// boundary never surfaces it; see [ErrInvalidLogin].
func ErrInvalidPassword() *Error {
	return &Error{
		Kind:    KindInvalidPassword,
		Message: "The provided password is incorrect",
		Status:  http.StatusUnauthorized,
	}
}

// ErrInvalidLogin is the composite, user-facing form of a failed login.
//
// It deliberately does not reveal whether the username or the password was
// wrong; the internal cause is still attached for logging.
func ErrInvalidLogin() *Error {
	return &Error{
		Kind:    KindInvalidLogin,
		Message: "Invalid login credentials",
		Status:  http.StatusUnauthorized,
	}
}
