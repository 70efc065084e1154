package models

import (
	"strings"

	"github.com/google/uuid"
)

// Defaults applied to exercises created without explicit values.
const (
	DefaultIncrement = 2.5
	DefaultUnit      = "kg"
)

// Exercise is a movement in the library. System exercises have no owner and
// are visible to everyone; custom exercises belong to one user.
type Exercise struct {
	ID               uuid.UUID  `json:"id"`
	UserID           *uuid.UUID `json:"-"`
	Name             string     `json:"name"`
	DefaultIncrement float64    `json:"default_increment"`
	Unit             string     `json:"unit"`
	IsCustom         bool       `json:"is_custom"`
}

// VisibleTo reports whether the user may read the exercise.
func (e Exercise) VisibleTo(userID uuid.UUID) bool {
	return e.UserID == nil || *e.UserID == userID
}

// CheckModifiable enforces the edit/delete rule: system exercises are
// read-only for everyone, and custom ones are writable only by their owner.
// A foreign custom exercise is reported as not found.
func (e Exercise) CheckModifiable(userID uuid.UUID) error {
	if !e.IsCustom {
		return ErrSystemExercise
	}
	if e.UserID == nil || *e.UserID != userID {
		return ErrNotFound
	}
	return nil
}

// ExerciseCreate is the payload for a new custom exercise.
type ExerciseCreate struct {
	Name             string   `json:"name"`
	DefaultIncrement *float64 `json:"default_increment"`
	Unit             string   `json:"unit"`
}

// Validate checks the payload and fills in defaults.
func (c *ExerciseCreate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name", "must not be empty")
	}
	if c.DefaultIncrement == nil {
		inc := DefaultIncrement
		c.DefaultIncrement = &inc
	}
	if *c.DefaultIncrement < 0 {
		return invalid("default_increment", "must not be negative")
	}
	c.Unit = strings.TrimSpace(c.Unit)
	if c.Unit == "" {
		c.Unit = DefaultUnit
	}
	return nil
}

// ExerciseUpdate is a partial update; nil fields are left unchanged.
type ExerciseUpdate struct {
	Name             *string  `json:"name"`
	DefaultIncrement *float64 `json:"default_increment"`
	Unit             *string  `json:"unit"`
}

// Validate checks the fields that are present.
func (u *ExerciseUpdate) Validate() error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		u.Name = &name
	}
	if u.DefaultIncrement != nil && *u.DefaultIncrement < 0 {
		return invalid("default_increment", "must not be negative")
	}
	if u.Unit != nil {
		unit := strings.TrimSpace(*u.Unit)
		if unit == "" {
			return invalid("unit", "must not be empty")
		}
		u.Unit = &unit
	}
	return nil
}

// Apply copies the present fields onto the exercise.
func (u ExerciseUpdate) Apply(e *Exercise) {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.DefaultIncrement != nil {
		e.DefaultIncrement = *u.DefaultIncrement
	}
	if u.Unit != nil {
		e.Unit = *u.Unit
	}
}
