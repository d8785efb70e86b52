package errs

import (
	"net/http"
)

func newHTTPError(status int, message string, override bool) *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(status)),
		Message:  message,
		Status:   status,
		Override: override,
	}
}

func NewUnauthorizedError(message string, override bool) *HTTPError {
	return newHTTPError(http.StatusUnauthorized, message, override)
}

func NewForbiddenError(message string, override bool) *HTTPError {
	return newHTTPError(http.StatusForbidden, message, override)
}

// NewBadRequestError builds a 400. code replaces the default BAD_REQUEST when
// not nil.
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	err := newHTTPError(http.StatusBadRequest, message, override)
	if code != nil {
		err.Code = *code
	}
	err.Errors = errors
	err.Action = action
	return err
}

func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	err := newHTTPError(http.StatusNotFound, message, override)
	if code != nil {
		err.Code = *code
	}
	return err
}

// NewUnprocessableEntityError is returned when a well-formed request fails
// validation.
func NewUnprocessableEntityError(message string, override bool, errors []FieldError) *HTTPError {
	err := newHTTPError(http.StatusUnprocessableEntity, message, override)
	err.Errors = errors
	return err
}

func NewTooManyRequestsError(message string) *HTTPError {
	return newHTTPError(http.StatusTooManyRequests, message, true)
}

// NewInternalServerError never carries the underlying cause.
func NewInternalServerError() *HTTPError {
	return newHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), false)
}

// ValidationError wraps the given field errors into the standard
// "Validation failed" response.
func ValidationError(fieldErrors ...FieldError) *HTTPError {
	return NewUnprocessableEntityError("Validation failed", true, fieldErrors)
}

// FieldInvalid is a shorthand for a validation failure on a single field.
func FieldInvalid(field, message string) *HTTPError {
	return ValidationError(FieldError{Field: field, Error: message})
}
