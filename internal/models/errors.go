package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrExerciseNotFound narrows ErrNotFound to a referenced exercise.
	ErrExerciseNotFound = fmt.Errorf("exercise %w", ErrNotFound)

	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrSystemExercise is returned when a caller tries to change a built-in exercise.
	ErrSystemExercise = errors.New("system exercises cannot be modified")

	// ErrExerciseInUse is returned when deleting an exercise that routines or sessions reference.
	ErrExerciseInUse = errors.New("exercise is used by routines or logged sets")

	// ErrSessionIDTaken is returned when a client-supplied session ID belongs to
	// another account.
	ErrSessionIDTaken = errors.New("session id already in use")

	// ErrRoutineHasHistory is returned when deleting a routine with completed sessions.
	ErrRoutineHasHistory = errors.New("routine has completed sessions")
)

// ValidationError reports a request field that breaks an input rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// OverlapError lists the active plans whose date ranges collide with a new range.
type OverlapError struct {
	Names []string
}

func (e *OverlapError) Error() string {
	return "Plan dates overlap with existing active plans: " + strings.Join(e.Names, ", ")
}
