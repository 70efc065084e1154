package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Routine types.
const (
	RoutineTypeWorkout = "workout"
	RoutineTypeRest    = "rest"
)

// Plan is a date-bounded macro cycle owned by a user.
type Plan struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"-"`
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	DurationWeeks int       `json:"duration_weeks"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// PlanEndDate returns the exclusive end of a plan starting at start and
// lasting the given number of weeks.
func PlanEndDate(start time.Time, weeks int) time.Time {
	return start.AddDate(0, 0, 7*weeks)
}

// Overlaps reports whether the plan's range intersects [start, end).
// Ranges that only touch do not overlap.
func (p Plan) Overlaps(start, end time.Time) bool {
	return p.StartDate.Before(end) && p.EndDate.After(start)
}

// CheckOverlap returns an *OverlapError naming every active plan in existing
// that collides with [start, end). The plan with id skip is ignored so a plan
// being re-activated does not conflict with itself.
func CheckOverlap(existing []Plan, start, end time.Time, skip uuid.UUID) error {
	var names []string
	for _, p := range existing {
		if !p.IsActive || p.ID == skip {
			continue
		}
		if p.Overlaps(start, end) {
			names = append(names, p.Name)
		}
	}
	if len(names) > 0 {
		return &OverlapError{Names: names}
	}
	return nil
}

// PlanCreate is the payload for a new plan.
type PlanCreate struct {
	Name          string    `json:"name"`
	Description   *string   `json:"description"`
	StartDate     time.Time `json:"start_date"`
	DurationWeeks int       `json:"duration_weeks"`
}

// Validate checks the payload.
func (c *PlanCreate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name", "must not be empty")
	}
	if c.StartDate.IsZero() {
		return invalid("start_date", "is required")
	}
	if c.DurationWeeks < 1 {
		return invalid("duration_weeks", "must be at least 1")
	}
	return nil
}

// PlanUpdate is a partial update; nil fields are left unchanged.
type PlanUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// Validate checks the fields that are present.
func (u *PlanUpdate) Validate() error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return invalid("name", "must not be empty")
		}
		u.Name = &name
	}
	return nil
}

// Reactivates reports whether applying the update turns an archived plan active.
func (u PlanUpdate) Reactivates(p Plan) bool {
	return u.IsActive != nil && *u.IsActive && !p.IsActive
}

// Apply copies the present fields onto the plan.
func (u PlanUpdate) Apply(p *Plan) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = u.Description
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
}

// DeleteOutcome says what deleting a plan actually did.
type DeleteOutcome string

const (
	PlanArchived DeleteOutcome = "archived"
	PlanDeleted  DeleteOutcome = "deleted"
)

// DeletePolicy picks between archiving and hard-deleting a plan. Plans with
// completed sessions keep their history and are only archived.
func DeletePolicy(hasCompletedSessions bool) DeleteOutcome {
	if hasCompletedSessions {
		return PlanArchived
	}
	return PlanDeleted
}

// Message is the user-facing description of the outcome.
func (o DeleteOutcome) Message() string {
	if o == PlanArchived {
		return "Plan archived (history preserved)"
	}
	return "Plan deleted permanently"
}

// Routine is a named day template inside a plan.
type Routine struct {
	ID          uuid.UUID `json:"id"`
	PlanID      uuid.UUID `json:"plan_id"`
	Name        string    `json:"name"`
	DayOfWeek   *int      `json:"day_of_week"`
	RoutineType string    `json:"routine_type"`
}

// RoutineCreate is the payload for a new routine.
type RoutineCreate struct {
	Name        string `json:"name"`
	DayOfWeek   *int   `json:"day_of_week"`
	RoutineType string `json:"routine_type"`
}

// Validate checks the payload and fills in the routine type.
func (c *RoutineCreate) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name", "must not be empty")
	}
	if c.DayOfWeek != nil && (*c.DayOfWeek < 0 || *c.DayOfWeek > 6) {
		return invalid("day_of_week", "must be between 0 (Monday) and 6 (Sunday)")
	}
	switch c.RoutineType {
	case "":
		c.RoutineType = RoutineTypeWorkout
	case RoutineTypeWorkout, RoutineTypeRest:
	default:
		return invalid("routine_type", "must be workout or rest")
	}
	return nil
}

// RoutineExercise is the target configuration of one exercise in a routine.
type RoutineExercise struct {
	ID             uuid.UUID `json:"id"`
	RoutineID      uuid.UUID `json:"routine_id"`
	ExerciseID     uuid.UUID `json:"exercise_id"`
	Name           string    `json:"name"`
	OrderIndex     int       `json:"order_index"`
	TargetSets     int       `json:"target_sets"`
	TargetReps     int       `json:"target_reps"`
	TargetWeight   float64   `json:"target_weight"`
	RestSeconds    int       `json:"rest_seconds"`
	IncrementValue float64   `json:"increment_value"`
}

// DefaultRestSeconds applies when a target omits rest_seconds.
const DefaultRestSeconds = 90

// RoutineExerciseCreate is the payload for a new exercise target.
type RoutineExerciseCreate struct {
	ExerciseID     uuid.UUID `json:"exercise_id"`
	OrderIndex     int       `json:"order_index"`
	TargetSets     int       `json:"target_sets"`
	TargetReps     int       `json:"target_reps"`
	TargetWeight   float64   `json:"target_weight"`
	RestSeconds    *int      `json:"rest_seconds"`
	IncrementValue *float64  `json:"increment_value"`
}

// Validate checks the payload. A missing increment is resolved later from
// the exercise's default increment.
func (c *RoutineExerciseCreate) Validate() error {
	if c.ExerciseID == uuid.Nil {
		return invalid("exercise_id", "is required")
	}
	if c.OrderIndex < 0 {
		return invalid("order_index", "must not be negative")
	}
	if c.TargetSets < 1 {
		return invalid("target_sets", "must be at least 1")
	}
	if c.TargetReps < 1 {
		return invalid("target_reps", "must be at least 1")
	}
	if c.TargetWeight < 0 {
		return invalid("target_weight", "must not be negative")
	}
	if c.RestSeconds == nil {
		rest := DefaultRestSeconds
		c.RestSeconds = &rest
	}
	if *c.RestSeconds < 0 {
		return invalid("rest_seconds", "must not be negative")
	}
	if c.IncrementValue != nil && *c.IncrementValue < 0 {
		return invalid("increment_value", "must not be negative")
	}
	return nil
}

// Resolve builds the stored target, taking the increment from the exercise
// when the payload left it out.
func (c RoutineExerciseCreate) Resolve(routineID uuid.UUID, ex Exercise) RoutineExercise {
	inc := ex.DefaultIncrement
	if c.IncrementValue != nil {
		inc = *c.IncrementValue
	}
	rest := DefaultRestSeconds
	if c.RestSeconds != nil {
		rest = *c.RestSeconds
	}
	return RoutineExercise{
		ID:             uuid.New(),
		RoutineID:      routineID,
		ExerciseID:     ex.ID,
		Name:           ex.Name,
		OrderIndex:     c.OrderIndex,
		TargetSets:     c.TargetSets,
		TargetReps:     c.TargetReps,
		TargetWeight:   c.TargetWeight,
		RestSeconds:    rest,
		IncrementValue: inc,
	}
}

// RoutineDetail is a routine with its ordered targets.
type RoutineDetail struct {
	Routine
	Exercises []RoutineExercise `json:"exercises"`
}

// PlanDetail is the deep read of a plan.
type PlanDetail struct {
	Plan
	Routines []RoutineDetail `json:"routines"`
}
