// Package apperr holds the error kinds shared by the storefront core.
package apperr

import (
	"errors"
)

var (
	ErrValidation        = errors.New("validation")
	ErrAuth              = errors.New("authentication rejected")
	ErrNetwork           = errors.New("network unavailable")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoSession         = errors.New("no active session")
)

// UserError pairs a message safe to show to the shopper with the underlying cause.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *UserError) Unwrap() error { return e.Err }

func WithMessage(msg string, err error) error {
	return &UserError{Message: msg, Err: err}
}

// Message returns the user-facing text carried by err, or fallback.
func Message(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}
