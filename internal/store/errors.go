package store

import "errors"

var (
	// ErrRoutineNotFound is returned when an operation targets an unknown routine.
	ErrRoutineNotFound = errors.New("routine not found")
	// ErrDogNotFound is returned when a write references an unknown dog.
	ErrDogNotFound = errors.New("dog not found")
)
