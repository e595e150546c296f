// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"errors"
	"net/http"

	"github.com/lorekeep/lorekeep/internal/platform/constants"
	"github.com/lorekeep/lorekeep/internal/platform/respond"
)

// # Authentication Middleware

// Middleware gates request dispatch behind a resource [Policy].
//
// # Flow
//
//  1. Derive the action name from the request path.
//  2. If the policy exempts the action, forward the request unchanged —
//     the resolver never runs, even when no token is present.
//  3. Otherwise run the [Resolver] with the entry point's strategies.
//  4. On failure, short-circuit with the typed taxonomy error.
//  5. On success, attach the [Session] to the request context and forward.
//
// The middleware performs no writes; its only effect is request
// augmentation.
type Middleware struct {
	resolver *Resolver
	service  *Service
}

// NewMiddleware constructs the authentication middleware.
func NewMiddleware(resolver *Resolver, service *Service) *Middleware {
	return &Middleware{
		resolver: resolver,
		service:  service,
	}
}

// RequireAPIAuth authenticates programmatic clients under the given policy,
// locating tokens via the Authorization header or the token parameter.
//
// # Returns
//   - An [http.Handler] middleware.
func (middleware *Middleware) RequireAPIAuth(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			action := ActionFromPath(request.URL.Path)

			// ── 1. Policy Check ───────────────────────────────────────────────
			if policy.Exempts(action) {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Session Resolution ─────────────────────────────────────────
			carrier := NewCarrier(request)
			session, err := middleware.resolver.Resolve(request.Context(), carrier, APIStrategies())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			ctx := WithSession(request.Context(), session)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireBrowserAuth authenticates browser clients under the given policy.
//
// The token never travels with a browser request directly: the session
// cookie carries an opaque identifier, the server-side session store holds
// the token under the auth_token key, and the session-store strategy reads
// it from there.
//
// # Returns
//   - An [http.Handler] middleware.
func (middleware *Middleware) RequireBrowserAuth(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			action := ActionFromPath(request.URL.Path)

			// ── 1. Policy Check ───────────────────────────────────────────────
			if policy.Exempts(action) {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Server-Side Session Load ───────────────────────────────────
			carrier := NewCarrier(request)
			if cookie, err := request.Cookie(constants.SessionCookieName); err == nil {
				values, err := middleware.service.LoadWebSession(request.Context(), cookie.Value)
				if err != nil && !errors.Is(err, ErrNotFound) {
					respond.Error(writer, request, err)
					return
				}
				// An expired or unknown session simply yields no values; the
				// resolver reports missing_token.
				carrier = carrier.WithSessionValues(values)
			}

			// ── 3. Session Resolution ─────────────────────────────────────────
			session, err := middleware.resolver.Resolve(request.Context(), carrier, BrowserStrategies())
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := WithSession(request.Context(), session)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

