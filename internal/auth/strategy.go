// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"net/http"
	"strings"

	"github.com/lorekeep/lorekeep/internal/platform/constants"
)

// # Token Carriers

const (
	// BearerScheme is the Authorization scheme carrying API tokens.
	BearerScheme = "Bearer"

	// TokenParameter is the query/body parameter name carrying a token.
	TokenParameter = "token"

	// SessionTokenKey is the server-side session entry holding the token
	// for browser-facing requests.
	SessionTokenKey = "auth_token"
)

// Carrier bundles everything a strategy may inspect when locating a token:
// the raw HTTP request plus the server-side session values loaded for
// browser flows.
type Carrier struct {
	// Request is the inbound HTTP request. Always set.
	Request *http.Request

	// Session holds the server-side session entries for browser requests.
	// Nil for API requests, which never consult the session store.
	Session map[string]string
}

// NewCarrier wraps an HTTP request for strategy inspection.
func NewCarrier(request *http.Request) *Carrier {
	return &Carrier{Request: request}
}

// WithSessionValues attaches loaded server-side session values and returns
// the carrier for chaining.
func (c *Carrier) WithSessionValues(values map[string]string) *Carrier {
	c.Session = values
	return c
}

// # Extraction Strategies

// Strategy is a pluggable rule for locating a token within a request.
//
// # Dispatch
//
// The closed set of strategies — header, parameter, session store — is
// selected explicitly by the caller per entry point (API vs. browser)
// rather than auto-detected, so each surface's token sources stay obvious.
type Strategy interface {
	// Matches reports whether this strategy can find a token in the carrier.
	Matches(carrier *Carrier) bool

	// Extract returns the candidate token. The boolean is false when no
	// token is present even though Matches reported true in a racy caller.
	Extract(carrier *Carrier) (string, bool)
}

// APIStrategies returns the extraction order for request-facing (API)
// authentication: bearer header first, then the token parameter.
func APIStrategies() []Strategy {
	return []Strategy{HeaderStrategy{}, ParameterStrategy{}}
}

// BrowserStrategies returns the extraction order for browser session-facing
// authentication: the server-side session store only.
func BrowserStrategies() []Strategy {
	return []Strategy{SessionStoreStrategy{}}
}

// ## Bearer Header

// HeaderStrategy locates tokens in "Authorization: Bearer <token>" headers.
type HeaderStrategy struct{}

// Matches reports whether an Authorization header with the Bearer scheme is present.
func (HeaderStrategy) Matches(carrier *Carrier) bool {
	fields := strings.Fields(carrier.Request.Header.Get(constants.HeaderAuthorization))
	return len(fields) > 0 && fields[0] == BearerScheme
}

// Extract returns the token following the Bearer scheme.
func (HeaderStrategy) Extract(carrier *Carrier) (string, bool) {
	fields := strings.Fields(carrier.Request.Header.Get(constants.HeaderAuthorization))
	if len(fields) != 2 || fields[0] != BearerScheme {
		return "", false
	}
	return fields[1], true
}

// ## Request Parameter

// ParameterStrategy locates tokens in the "token" query or form parameter.
type ParameterStrategy struct{}

// Matches reports whether a non-empty token parameter is present.
func (ParameterStrategy) Matches(carrier *Carrier) bool {
	return carrier.Request.FormValue(TokenParameter) != ""
}

// Extract returns the token parameter's value.
func (ParameterStrategy) Extract(carrier *Carrier) (string, bool) {
	value := carrier.Request.FormValue(TokenParameter)
	return value, value != ""
}

// ## Server-Side Session

// SessionStoreStrategy locates tokens in the loaded server-side session
// under the "auth_token" entry.
type SessionStoreStrategy struct{}

// Matches reports whether the session carries an auth_token entry.
func (SessionStoreStrategy) Matches(carrier *Carrier) bool {
	return carrier.Session != nil && carrier.Session[SessionTokenKey] != ""
}

// Extract returns the session's auth_token value.
func (SessionStoreStrategy) Extract(carrier *Carrier) (string, bool) {
	if carrier.Session == nil {
		return "", false
	}
	value := carrier.Session[SessionTokenKey]
	return value, value != ""
}
