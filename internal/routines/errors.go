package routines

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDog is returned when an operation needs a dog profile that does not exist yet.
	ErrNoDog = errors.New("create a dog profile first")
	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
