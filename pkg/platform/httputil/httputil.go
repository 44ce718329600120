// Package httputil holds the JSON response and request-decoding helpers shared
// by every HTTP handler.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "fundvault/pkg/domain-errors"
)

// ErrorResponse is the envelope returned for every failed request.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err to an HTTP status and error envelope. Internal failures
// are masked so storage and broker details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := dErrors.HTTPStatus(code)

	resp := ErrorResponse{Error: string(code)}
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) && status < http.StatusInternalServerError {
		resp.Message = domainErr.Message
		resp.Details = domainErr.Details
	}

	WriteJSON(w, status, resp)
}

// Validator is implemented by request payloads that check their own fields
// after decoding.
type Validator interface {
	Validate() error
}

// DecodeAndPrepare decodes the request body into T and runs its validation.
// On failure it writes the error response and returns ok=false; the handler
// should simply return.
func DecodeAndPrepare[T Validator](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.DebugContext(r.Context(), "request body rejected", "error", err)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return req, false
	}

	if err := req.Validate(); err != nil {
		WriteError(w, err)
		return req, false
	}
	return req, true
}
