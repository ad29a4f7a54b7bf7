// Package apperr holds the error sentinels shared by the marketplace services.
package apperr

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid input")
)

// ValidationError describes a rejected input field. It matches ErrInvalid.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}
