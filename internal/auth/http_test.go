// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/platform/constants"
)

// newAuthRouter wires the full handler stack against in-memory stores and
// returns the router plus the fixture for direct store inspection.
func newAuthRouter(t *testing.T) (http.Handler, *middlewareFixture) {
	t.Helper()
	fixture := newMiddlewareFixture(t)
	service := auth.NewService(fixture.users, fixture.credentials, fixture.sessions, fixture.codec)
	handler := auth.NewHandler(service, fixture.middleware)
	return handler.Routes(), fixture
}

func postJSON(t *testing.T, router http.Handler, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest("POST", path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(request)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestAuthRoutes_RegisterAndLogin verifies the public endpoints work without
any token, per the exemption policy, and that login yields a token the
gated endpoints accept.
*/
func TestAuthRoutes_RegisterAndLogin(t *testing.T) {
	router, _ := newAuthRouter(t)

	recorder := postJSON(t, router, "/register",
		`{"username":"flynn","email":"flynn@example.com","password":"tronlives1"}`, nil)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	recorder = postJSON(t, router, "/login",
		`{"username":"flynn","password":"tronlives1"}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	// The browser session cookie rides along with the token response.
	cookies := recorder.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, constants.SessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)

	// The issued token opens the gated /me endpoint.
	request := httptest.NewRequest("GET", "/me", nil)
	request.Header.Set("Authorization", "Bearer "+envelope.Data.Token)
	meRecorder := httptest.NewRecorder()
	router.ServeHTTP(meRecorder, request)

	assert.Equal(t, http.StatusOK, meRecorder.Code, meRecorder.Body.String())
	assert.Contains(t, meRecorder.Body.String(), "flynn")
}

/*
TestAuthRoutes_LoginFailure verifies the wire shape of a failed login:
401 with the collapsed invalid_login type.
*/
func TestAuthRoutes_LoginFailure(t *testing.T) {
	router, _ := newAuthRouter(t)

	recorder := postJSON(t, router, "/login",
		`{"username":"nobody","password":"whatever1"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	envelope := decodeTypedError(t, recorder)
	assert.Equal(t, auth.KindInvalidLogin, envelope["type"])
	assert.Equal(t, "Invalid login credentials", envelope["message"])
}

/*
TestAuthRoutes_GatedWithoutToken verifies the policy: register and login
are exempt, everything else on the router is not.
*/
func TestAuthRoutes_GatedWithoutToken(t *testing.T) {
	router, _ := newAuthRouter(t)

	recorder := postJSON(t, router, "/change-password",
		`{"current_password":"a","new_password":"b"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeTypedError(t, recorder)
	assert.Equal(t, auth.KindMissingToken, envelope["type"])
}

/*
TestAuthRoutes_ChangePassword verifies the gated rotation endpoint end to
end: old password stops working, new one logs in.
*/
func TestAuthRoutes_ChangePassword(t *testing.T) {
	router, _ := newAuthRouter(t)

	recorder := postJSON(t, router, "/register",
		`{"username":"flynn","email":"flynn@example.com","password":"tronlives1"}`, nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = postJSON(t, router, "/login",
		`{"username":"flynn","password":"tronlives1"}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	withToken := func(request *http.Request) {
		request.Header.Set("Authorization", "Bearer "+envelope.Data.Token)
	}

	recorder = postJSON(t, router, "/change-password",
		`{"current_password":"tronlives1","new_password":"endofline9"}`, withToken)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = postJSON(t, router, "/login",
		`{"username":"flynn","password":"tronlives1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = postJSON(t, router, "/login",
		`{"username":"flynn","password":"endofline9"}`, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// Wrong current password reports the internal kind on this endpoint.
	recorder = postJSON(t, router, "/login",
		`{"username":"flynn","password":"endofline9"}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	recorder = postJSON(t, router, "/change-password",
		`{"current_password":"wrongpass1","new_password":"another123"}`,
		func(request *http.Request) {
			request.Header.Set("Authorization", "Bearer "+envelope.Data.Token)
		})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	typed := decodeTypedError(t, recorder)
	assert.Equal(t, auth.KindInvalidPassword, typed["type"])
}

/*
TestAuthRoutes_Logout verifies logout destroys the browser session and
clears the cookie, and succeeds with or without one.
*/
func TestAuthRoutes_Logout(t *testing.T) {
	router, fixture := newAuthRouter(t)

	recorder := postJSON(t, router, "/register",
		`{"username":"flynn","email":"flynn@example.com","password":"tronlives1"}`, nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = postJSON(t, router, "/login",
		`{"username":"flynn","password":"tronlives1"}`, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	sessionCookie := recorder.Result().Cookies()[0]
	require.Len(t, fixture.sessions.sessions, 1)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))

	recorder = postJSON(t, router, "/logout", "", func(request *http.Request) {
		request.Header.Set("Authorization", "Bearer "+envelope.Data.Token)
		request.AddCookie(sessionCookie)
	})

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Empty(t, fixture.sessions.sessions)

	// The response clears the cookie client-side.
	cleared := recorder.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, constants.SessionCookieName, cleared[0].Name)
	assert.Negative(t, cleared[0].MaxAge)
}

/*
TestAuthRoutes_RegisterValidation verifies input validation short-circuits
before the service runs.
*/
func TestAuthRoutes_RegisterValidation(t *testing.T) {
	router, fixture := newAuthRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid_json", `{"username":`},
		{"short_username", `{"username":"ab","email":"a@b.com","password":"tronlives1"}`},
		{"bad_email", `{"username":"flynn","email":"not-an-email","password":"tronlives1"}`},
		{"short_password", `{"username":"flynn","email":"a@b.com","password":"short"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postJSON(t, router, "/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}

	assert.Empty(t, fixture.users.users)
}
