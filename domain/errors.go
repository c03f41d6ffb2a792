package domain

import (
	"errors"
	"fmt"
)

// Error codes crossing the mutation layer boundary. Everything else is
// absorbed internally.
const (
	CodeValidation      = "VALIDATION"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthenticated = "UNAUTHENTICATED"
)

// Error is a typed failure returned by the mutation layer.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError reports missing or malformed mutation input.
func NewValidationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NewNotFoundError reports an unresolved mutation target.
func NewNotFoundError(what string) *Error {
	return &Error{Code: CodeNotFound, Message: what + " not found"}
}

// ErrUnauthenticated is returned before any persistence or cache access
// when the caller carries no valid session.
var ErrUnauthenticated = &Error{Code: CodeUnauthenticated, Message: "missing or invalid credentials"}

// IsNotFound reports whether err is a typed not-found failure.
func IsNotFound(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == CodeNotFound
}

// IsValidation reports whether err is a typed validation failure.
func IsValidation(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == CodeValidation
}
