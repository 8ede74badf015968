package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// WHY HELPERS?
// Without helpers, every handler repeats the same boilerplate:
//   w.Header().Set("Content-Type", "application/json")
//   w.WriteHeader(statusCode)
//   json.NewEncoder(w).Encode(data)
//
// With helpers, handlers are cleaner and more consistent:
//   h.resp.JSON(w, http.StatusOK, Envelope{...})
//   h.resp.Error(w, r, err)
//
// CONSISTENT ENVELOPE:
// Every response from our API, success or failure, has the same shape:
//   {"success": true,  "message": "...", "count": 3, "data": ...}
//   {"success": false, "message": "...", "errors": [{"field": "...", "message": "..."}]}
//
// The frontend checks `success` first and never has to guess the shape.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
)

// maxBodyBytes caps request bodies. Blog content is the largest thing we accept.
const maxBodyBytes = 1 << 20

const msgServerError = "server error"

// Envelope is the standard body returned by all API endpoints.
//
// Count is a pointer so that an empty list still reports "count": 0 while
// responses without a list omit the field entirely.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Count   *int                  `json:"count,omitempty"`
	Data    any                   `json:"data,omitempty"`
	Errors  []apperror.FieldError `json:"errors,omitempty"`
	Stack   string                `json:"stack,omitempty"`
}

// success builds a success envelope.
func success(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// listOf builds a success envelope for a collection, including its length.
func listOf[T any](items []T) Envelope {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	return Envelope{Success: true, Count: &n, Data: items}
}

// Responder writes envelopes and turns errors into HTTP responses.
//
// showStack is set outside production: 500 responses then carry the error's
// "%+v" rendering, which includes the pkg/errors stack trace recorded where a
// store call failed.
type Responder struct {
	logger    *slog.Logger
	showStack bool
}

// NewResponder creates a Responder.
func NewResponder(logger *slog.Logger, showStack bool) *Responder {
	return &Responder{logger: logger, showStack: showStack}
}

// JSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// You MUST set headers and status code BEFORE writing the body.
// Once you call w.Write() (which Encode does internally), the headers are sent.
// Any header changes after that are silently ignored.
func (rs *Responder) JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already sent, so logging is all we can do.
		rs.logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// Error maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
// This is the one place where domain errors (from the service layer) get
// translated to HTTP. The service layer returns apperror.ErrValidation,
// apperror.ErrNotFound, etc. and never sees a status code.
//
// errors.Is() walks the whole chain (via Unwrap()), so a service may wrap an
// AppError with fmt.Errorf("...: %w", err) and it still maps correctly.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var appErr *apperror.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		body := Envelope{Message: appErr.Message}
		if errors.Is(err, apperror.ErrValidation) {
			body.Errors = appErr.Details
		}
		rs.JSON(w, status, body)
		return
	}

	// Unknown error. The raw message might contain SQL or file paths, so the
	// client only sees it outside production.
	rs.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("requestID", chimiddleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)

	body := Envelope{Message: msgServerError}
	if rs.showStack {
		body.Stack = fmt.Sprintf("%+v", err)
	}
	rs.JSON(w, http.StatusInternalServerError, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation), errors.Is(err, apperror.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst.
//
// An empty body decodes as {}, leaving dst untouched, so "nothing supplied"
// reaches the service's own validation. A value of the wrong JSON type becomes a
// validation error on that field; anything else unreadable is "invalid JSON body".
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.ValidationFailed(typeErr.Field,
			fmt.Sprintf("%s must be %s", typeErr.Field, kindName(typeErr.Type)))
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return &apperror.AppError{Err: apperror.ErrValidation, Message: "request body too large"}
	}

	return &apperror.AppError{Err: apperror.ErrValidation, Message: "invalid JSON body"}
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return "an array"
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Struct, reflect.Map:
		return "an object"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	default:
		return "a valid value"
	}
}
