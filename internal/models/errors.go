// ABOUTME: Sentinel errors shared by the models and storage layers
// ABOUTME: Validation failures wrap ErrValidation so callers can match with errors.Is
package models

import (
	"errors"
	"fmt"
)

// ErrValidation is returned when a create input is missing a required field
// or carries a value outside its allowed set.
var ErrValidation = errors.New("validation failed")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
