// Package apperror defines the application's error taxonomy.
//
// Services return these errors; the HTTP layer maps them to status codes in one
// place (handler.Responder.Error). Every constructor wraps one of the sentinel errors
// below, so callers classify errors with errors.Is and read messages with errors.As.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrTooManyRequests = errors.New("too many requests")
)

// FieldError is a single field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type AppError struct {
	Err     error        // actual error
	Message string       // Human-readable error message
	Field   string       // Optional: field causing the error
	Details []FieldError // Optional: every failing field, for multi-field validation
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

// NotFoundMessage is NotFound with a caller-supplied message, for resources
// that have no id (singletons).
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
		Details: []FieldError{{Field: field, Message: message}},
	}
}

// Validation builds a validation error that carries several field messages.
// The first detail becomes the top-level Field.
func Validation(details []FieldError) *AppError {
	e := &AppError{
		Err:     ErrValidation,
		Message: "validation failed",
		Details: details,
	}
	if len(details) > 0 {
		e.Field = details[0].Field
	}
	return e
}

// Conflict reports a duplicate key (username, email, slug...).
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or invalid credentials.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
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

// TooManyRequests is returned by rate-limited operations. Maps to 429.
func TooManyRequests(message string) *AppError {
	return &AppError{
		Err:     ErrTooManyRequests,
		Message: message,
	}
}
