// Package apperr marks service-layer errors caused by bad client input so
// handlers can answer 400 without string matching.
package apperr

import (
	"errors"
	"fmt"
)

var ErrValidation = errors.New("validation failed")

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }

// Invalid returns a validation error with a client-facing message.
func Invalid(format string, args ...interface{}) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
