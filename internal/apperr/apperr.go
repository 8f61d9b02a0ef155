// Package apperr holds error types shared across request handling.
package apperr

import "errors"

// ValidationError reports input that was rejected before any I/O happened.
// Message is safe to show to the user as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation returns a *ValidationError with the given message.
func Validation(message string) error {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
