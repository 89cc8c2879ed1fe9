// Package apperror defines the error taxonomy shared by every layer.
//
// Services return *AppError values that wrap one of the sentinels below.
// The HTTP layer maps the sentinel to a status code with errors.Is, so the
// service never needs to know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")

	// Connection workflow errors. Each one wraps a broader sentinel so callers
	// can match either the specific case or the general class:
	//
	//	errors.Is(err, ErrRoleConflict) // true
	//	errors.Is(err, ErrValidation)   // also true
	ErrSelfReference    = fmt.Errorf("self reference: %w", ErrValidation)
	ErrRoleConflict     = fmt.Errorf("role conflict: %w", ErrValidation)
	ErrDuplicateRequest = fmt.Errorf("duplicate request: %w", ErrConflict)
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage is NotFound with a caller-supplied message, used where the
// lookup also encodes an authorization filter and the id alone would mislead.
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized means the caller could not be identified at all (missing,
// expired or forged token). HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// SelfReference is returned when a user tries to connect with themselves.
func SelfReference() *AppError {
	return &AppError{
		Err:     ErrSelfReference,
		Message: "cannot send a connection request to yourself",
		Field:   "receiverId",
	}
}

// RoleConflict is returned when both users hold the same role.
func RoleConflict() *AppError {
	return &AppError{
		Err:     ErrRoleConflict,
		Message: "a connection must pair one mentor with one mentee",
		Field:   "receiverId",
	}
}

// DuplicateRequest is returned when an active record already exists for a pair.
func DuplicateRequest(message string) *AppError {
	return &AppError{
		Err:     ErrDuplicateRequest,
		Message: message,
	}
}
