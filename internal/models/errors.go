package models

import (
	"errors"
	"strings"
)

// ValidationError reports input that breaks a business rule, as opposed to an
// infrastructure failure.
type ValidationError struct {
	Message string
	Fields  []string
}

func NewValidationError(msg string, fields ...string) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
