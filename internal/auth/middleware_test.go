// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/platform/constants"
)

// middlewareFixture wires the middleware against the in-memory stores.
type middlewareFixture struct {
	middleware  *auth.Middleware
	codec       *auth.TokenCodec
	users       *fakeUserStore
	credentials *fakeCredentialStore
	sessions    *fakeWebSessionStore
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()
	codec := newTestCodec(t)
	users := newFakeUserStore()
	credentials := newFakeCredentialStore()
	sessions := newFakeWebSessionStore()

	resolver := auth.NewResolver(codec, credentials, users)
	service := auth.NewService(users, credentials, sessions, codec)

	return &middlewareFixture{
		middleware:  auth.NewMiddleware(resolver, service),
		codec:       codec,
		users:       users,
		credentials: credentials,
		sessions:    sessions,
	}
}

// issueToken enrolls a user and returns a valid session token for them.
func (f *middlewareFixture) issueToken(t *testing.T, username string) (*auth.User, string) {
	t.Helper()
	user := newTestUser(username)
	credential := newTestCredential(t, user.ID, "tronlives")
	f.users.users[user.ID] = user
	f.credentials.credentials[credential.ID] = credential

	token, err := f.codec.Encode(auth.NewSession(credential, user, time.Now().Add(auth.SessionTTL)))
	require.NoError(t, err)
	return user, token
}

// sessionProbe records whether next ran and what session it observed.
type sessionProbe struct {
	called  bool
	session *auth.Session
}

func (probe *sessionProbe) handler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		probe.called = true
		probe.session = auth.SessionFrom(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

// decodeTypedError unpacks the {type, message, data} wire envelope.
func decodeTypedError(t *testing.T, body *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	envelope := map[string]any{}
	require.NoError(t, json.Unmarshal(body.Body.Bytes(), &envelope))
	return envelope
}

/*
TestMiddleware_PolicyExemption verifies an exempted action forwards even
with no token present, without invoking the resolver.
*/
func TestMiddleware_PolicyExemption(t *testing.T) {
	fixture := newMiddlewareFixture(t)
	probe := &sessionProbe{}

	handler := fixture.middleware.RequireAPIAuth(auth.ExemptActions("create"))(probe.handler())

	request := httptest.NewRequest("POST", "/v1/things/create", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.True(t, probe.called)
	assert.Nil(t, probe.session)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestMiddleware_ExemptAll verifies the authenticate-nothing policy.
*/
func TestMiddleware_ExemptAll(t *testing.T) {
	fixture := newMiddlewareFixture(t)
	probe := &sessionProbe{}

	handler := fixture.middleware.RequireAPIAuth(auth.ExemptAll())(probe.handler())

	request := httptest.NewRequest("GET", "/v1/things/anything", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.True(t, probe.called)
}

/*
TestMiddleware_MissingToken verifies a gated action without a token
short-circuits with the typed missing_token envelope.
*/
func TestMiddleware_MissingToken(t *testing.T) {
	fixture := newMiddlewareFixture(t)
	probe := &sessionProbe{}

	handler := fixture.middleware.RequireAPIAuth(auth.RequireAll())(probe.handler())

	request := httptest.NewRequest("GET", "/v1/auth/me", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.False(t, probe.called)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	envelope := decodeTypedError(t, recorder)
	assert.Equal(t, auth.KindMissingToken, envelope["type"])
	assert.NotEmpty(t, envelope["message"])
}

/*
TestMiddleware_ValidToken verifies a bearer token authenticates and the
handler sees the attached session.
*/
func TestMiddleware_ValidToken(t *testing.T) {
	fixture := newMiddlewareFixture(t)
	user, token := fixture.issueToken(t, "flynn")
	probe := &sessionProbe{}

	handler := fixture.middleware.RequireAPIAuth(auth.RequireAll())(probe.handler())

	request := httptest.NewRequest("GET", "/v1/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	require.True(t, probe.called)
	require.NotNil(t, probe.session)
	assert.Equal(t, user.ID, probe.session.AuthorizedUser.ID)
}

/*
TestMiddleware_ExpiredToken verifies the typed expired_token envelope
reaches the wire.
*/
func TestMiddleware_ExpiredToken(t *testing.T) {
	fixture := newMiddlewareFixture(t)
	fixture.issueToken(t, "flynn")
	probe := &sessionProbe{}

	// Sign a token that expired yesterday against the user's credential.
	var credentialID string
	for id := range fixture.credentials.credentials {
		credentialID = id
	}

	expired := signToken(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{
		"sub": credentialID,
		"exp": time.Now().Add(-24 * time.Hour).Unix(),
	})

	handler := fixture.middleware.RequireAPIAuth(auth.RequireAll())(probe.handler())

	request := httptest.NewRequest("GET", "/v1/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+expired)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.False(t, probe.called)
	envelope := decodeTypedError(t, recorder)
	assert.Equal(t, auth.KindExpiredToken, envelope["type"])
}

/*
TestMiddleware_Browser verifies the cookie → session store → resolver
chain for browser clients.
*/
func TestMiddleware_Browser(t *testing.T) {
	fixture := newMiddlewareFixture(t)
	user, token := fixture.issueToken(t, "flynn")

	service := auth.NewService(fixture.users, fixture.credentials, fixture.sessions, fixture.codec)
	sessionID, err := service.EstablishWebSession(context.Background(), token)
	require.NoError(t, err)

	probe := &sessionProbe{}
	handler := fixture.middleware.RequireBrowserAuth(auth.RequireAll())(probe.handler())

	t.Run("with_cookie", func(t *testing.T) {
		request := httptest.NewRequest("GET", "/account", nil)
		request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: sessionID})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		require.True(t, probe.called)
		require.NotNil(t, probe.session)
		assert.Equal(t, user.ID, probe.session.AuthorizedUser.ID)
	})

	t.Run("no_cookie", func(t *testing.T) {
		probe.called = false
		request := httptest.NewRequest("GET", "/account", nil)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.False(t, probe.called)
		envelope := decodeTypedError(t, recorder)
		assert.Equal(t, auth.KindMissingToken, envelope["type"])
	})

	t.Run("unknown_session_cookie", func(t *testing.T) {
		probe.called = false
		request := httptest.NewRequest("GET", "/account", nil)
		request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "gone"})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.False(t, probe.called)
		envelope := decodeTypedError(t, recorder)
		assert.Equal(t, auth.KindMissingToken, envelope["type"])
	})
}
