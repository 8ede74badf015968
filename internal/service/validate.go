package service

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/tahircanyildiz/blog-website/internal/apperror"
)

// validationError converts the result of an ozzo validation into the
// application's error taxonomy.
//
// ozzo returns validation.Errors, a map from field name (the json tag) to the
// failing rule's error. Nested structs and slices produce nested maps; those
// are flattened into dotted paths such as "socialMedia.0.platform". Details are
// sorted by field so responses are stable.
//
// A nil input returns nil, so callers can write
//
//	if err := validationError(validation.ValidateStruct(...)); err != nil
func validationError(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return internal
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return apperror.ValidationFailed("", err.Error())
	}

	var details []apperror.FieldError
	flatten("", fieldErrs, &details)
	sort.Slice(details, func(i, j int) bool { return details[i].Field < details[j].Field })

	return apperror.Validation(details)
}

func flatten(prefix string, errs validation.Errors, out *[]apperror.FieldError) {
	for field, err := range errs {
		if err == nil {
			continue
		}
		path := field
		if prefix != "" {
			path = prefix + "." + field
		}

		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(path, nested, out)
			continue
		}
		*out = append(*out, apperror.FieldError{Field: path, Message: err.Error()})
	}
}

// trimPtr trims the string a pointer refers to, leaving nil alone.
func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// cleanList trims every entry and drops the empty ones.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
