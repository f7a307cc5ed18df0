package service

import (
	"errors"
	"fmt"
)

var (
	ErrForbidden  = errors.New("access denied")
	ErrValidation = errors.New("validation failed")
)

// invalid wraps ErrValidation with a field-level message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
