package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMirrorUnavailable = errors.New("mirror unavailable")

	ErrDuplicateEdge = fmt.Errorf("%w: already following this user", ErrConflict)
	ErrSelfFollow    = fmt.Errorf("%w: cannot follow yourself", ErrConflict)
	ErrSelfMessage   = fmt.Errorf("%w: cannot send message to yourself", ErrConflict)
)

// ValidationError is a user-correctable input problem tied to one field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return e.Field + " is required"
	}
	return e.Field + ": " + e.Message
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Required(field string) error {
	return &ValidationError{Field: field}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
