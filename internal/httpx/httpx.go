// Package httpx provides HTTP utilities for binding, validation, error responses and middleware.
//
// Overview:
//   - Responsibility: JSON request/response helpers, coded error responses, security and CORS headers,
//     access logging and panic recovery
//   - Key Types: SecurityHeaders, CORSOptions, Middleware
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Coded errors map to 400 for caller mistakes and 500 otherwise
//   - Performance Notes: Streaming JSON encoding, one validator instance per process
//
// Usage:
//
//	var req DownloadRequest
//	if err := httpx.BindAndValidate(r, &req); err != nil {
//	    httpx.WriteError(w, err)
//	    return
//	}
package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"go.eggybyte.com/codestart/internal/errors"
)

var validate = validator.New()

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// BindAndValidate decodes the JSON body into target and validates its `validate` tags.
// Failures are INVALID_REQUEST.
func BindAndValidate(r *http.Request, target any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New(errors.CodeInvalidRequest, "request body is empty")
	}

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return errors.Wrapf(errors.CodeInvalidRequest, "httpx.BindAndValidate", err, "invalid JSON")
	}

	if err := validate.Struct(target); err != nil {
		return errors.Wrapf(errors.CodeInvalidRequest, "httpx.BindAndValidate", err, "validation failed")
	}
	return nil
}

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// StatusOf maps an error code to an HTTP status. Codes describing a bad request are 400.
func StatusOf(code errors.Code) int {
	switch code {
	case errors.CodeInvalidRequest,
		errors.CodeUnknownExtension,
		errors.CodeIncompatibleExtension,
		errors.CodeUnsupportedBuildTool,
		errors.CodeUnsupportedLanguage:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {error, message, details} with the status derived from its code.
func WriteError(w http.ResponseWriter, err error) error {
	body := errors.BodyOf(err)
	return WriteJSON(w, StatusOf(body.Error), body)
}

// NotFoundHandler returns a standard 404 JSON response.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSON(w, http.StatusNotFound, errors.Body{
			Error:   "NOT_FOUND",
			Message: fmt.Sprintf("Path %s not found", r.URL.Path),
		})
	}
}

// MethodNotAllowedHandler returns a standard 405 JSON response.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSON(w, http.StatusMethodNotAllowed, errors.Body{
			Error:   "METHOD_NOT_ALLOWED",
			Message: fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path),
		})
	}
}
