// Copyright (c) 2026 Lorekeep. All rights reserved.

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// It ensures that every response (Success or Error) across the entire application
// follows a strict, predictable JSON envelope structure. This consistency is
// crucial for mobile apps and frontend SPAs to parse data robustly.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lorekeep/lorekeep/internal/platform/apperr"
	"github.com/lorekeep/lorekeep/internal/platform/ctxutil"
)

// # Envelopes

// SuccessEnvelope is the JSON envelope for successful single-resource responses.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the JSON envelope for generic error responses.
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// TypedErrorEnvelope is the wire shape for authentication failures.
//
// # Contract
//
// Authentication clients dispatch UX on the dotted "type" value, so this
// envelope is kept distinct from [ErrorEnvelope] and never collapsed into it.
type TypedErrorEnvelope struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

// TypedError is implemented by errors that carry a dotted error kind and
// structured data (the authentication taxonomy). Defining the interface here
// keeps respond decoupled from the auth core.
type TypedError interface {
	error
	ErrorType() string
	ErrorData() map[string]any
	HTTPStatus() int
}

// # Writers

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
//
// # Resolution Order
//
//  1. [TypedError] (authentication taxonomy) → {type, message, data} envelope.
//  2. [*apperr.AppError] → {error, code, details} envelope.
//  3. Anything else → logged server-side and masked as 500 INTERNAL_ERROR.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var typed TypedError
	if errors.As(err, &typed) {
		JSON(writer, typed.HTTPStatus(), TypedErrorEnvelope{
			Type:    typed.ErrorType(),
			Message: typed.Error(),
			Data:    typed.ErrorData(),
		})
		return
	}

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client for security.
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Error:   appError.Message,
		Code:    appError.Code,
		Details: appError.Details,
	})
}
