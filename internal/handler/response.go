// Package handler turns HTTP requests into service calls and service results
// into JSON responses.
//
// Handlers never touch the database and never decide business rules. They
// parse input, call one service method and map the outcome to a status code.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/mentorship-platform/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a profile
// with a 500 character bio and two lists of 20 tags.
const maxBodyBytes = 64 << 10

// ErrorResponse is the shape of every error body:
//
//	{"error": "validation_error", "message": "bio must be 500 characters or less", "field": "bio"}
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input, for validation errors
}

// MessageResponse is the body of operations with nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Status is already on the wire; logging is all that is left.
		logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func writeMessage(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, MessageResponse{Message: message})
}

// writeError maps a service error to a status code.
//
// ERROR MAPPING:
//
//	ErrValidation   → 400 validation_error (ErrSelfReference, ErrRoleConflict)
//	ErrUnauthorized → 401 unauthorized
//	ErrForbidden    → 403 forbidden
//	ErrNotFound     → 404 not_found
//	ErrConflict     → 409 conflict (ErrDuplicateRequest)
//	anything else   → 500 internal_error, logged, details withheld
//
// errors.Is walks the Unwrap chain, so a domain sentinel such as
// ErrRoleConflict matches its parent ErrValidation here.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := classify(err)
		if status != http.StatusInternalServerError {
			writeJSON(w, logger, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	// Raw errors may carry SQL or file paths; the client gets a generic body.
	logger.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, logger, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a single JSON object from the body into dst. Unknown
// fields are rejected so a typo such as "reciverId" fails loudly.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("", fmt.Sprintf("request body must be at most %d bytes", maxErr.Limit))
		}
		return apperror.ValidationFailed("", "request body must be valid JSON: "+err.Error())
	}
	return nil
}
