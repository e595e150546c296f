// Copyright (c) 2026 Lorekeep. All rights reserved.

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorekeep/lorekeep/internal/platform/constants"
	requestutil "github.com/lorekeep/lorekeep/internal/platform/request"
	"github.com/lorekeep/lorekeep/internal/platform/respond"
	"github.com/lorekeep/lorekeep/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// This layer is strictly responsible for transport concerns (status codes,
// cookies, JSON); all decisions live in [Service] and [Resolver].
type Handler struct {
	service    *Service
	middleware *Middleware
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, middleware *Middleware) *Handler {
	return &Handler{
		service:    service,
		middleware: middleware,
	}
}

// Routes returns a [chi.Router] with the authentication endpoints.
//
// # Endpoints
//   - POST /register        : Creates a new account (public).
//   - POST /login           : Authenticates and returns a session token (public).
//   - POST /logout          : Destroys the browser session.
//   - POST /change-password : Rotates the password credential.
//   - GET  /me              : Returns the authenticated user.
//
// The whole router sits behind one policy: register and login are exempt,
// everything else requires a resolved session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(handler.middleware.RequireAPIAuth(ExemptActions("register", "login")))

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Post("/change-password", handler.changePassword)
	router.Get("/me", handler.me)

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

/*
Register handles the creation of a new user account.

POST /v1/auth/register

Description: Validates input, checks for identity conflicts, and persists
a new account with its first password credential.

Request:
  - Body: registerRequest (Username, Email, Password)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 32).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		MaxLen(FieldPassword, input.Password, 72)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and issues a session token.

POST /v1/auth/login

Description: Verifies the username/password pair and returns the signed
session token. A server-side browser session is established alongside and
its identifier set as a cookie, so browser clients never hold the token.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: Token, expiry, and user profile
  - 401: invalid_login: Any credential failure, undifferentiated
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.service.Login(request.Context(), LoginInput{
		Username: input.Username,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Browser support: park the token server-side and hand out only the
	// opaque session ID. API clients ignore the cookie and use the token.
	sessionID, err := handler.service.EstablishWebSession(request.Context(), result.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    sessionID,
		Path:     constants.SessionCookiePath,
		Expires:  time.Now().Add(WebSessionTTL),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.OK(writer, map[string]any{
		FieldToken:   result.Token,
		"expires_at": result.Session.ExpiresAt,
		FieldUser:    result.Session.AuthorizedUser,
	})
}

/*
Logout destroys the browser session, if any.

POST /v1/auth/logout

Description: Removes the server-side session entry and clears the cookie.
Issued tokens stay valid until their embedded expiration; short token
lifetimes bound that window.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.SessionCookieName)

	if err == nil && cookie.Value != "" {
		_ = handler.service.DestroyWebSession(request.Context(), cookie.Value)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
ChangePassword rotates the authenticated user's password credential.

POST /v1/auth/change-password

Description: Verifies the current password and atomically swaps the active
credential. The session token keeps working until its own expiration; the
next login issues a token against the new credential.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success message
  - 401: invalid_password: Current password mismatch
  - 422: missing_password: No active password credential
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	session := SessionFrom(request.Context())

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8).
		MaxLen(FieldNewPassword, input.NewPassword, 72)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.service.RotatePassword(
		request.Context(),
		session.AuthorizedUser,
		input.CurrentPassword,
		input.NewPassword,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

/*
Me returns the profile behind the current session.

GET /v1/auth/me

Response:
  - 200: User profile and session expiry
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	session := SessionFrom(request.Context())

	respond.OK(writer, map[string]any{
		FieldUser:    session.AuthorizedUser,
		"expires_at": session.ExpiresAt,
	})
}
