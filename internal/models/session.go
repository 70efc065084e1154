package models

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusSkipped    = "skipped"
)

// Session is a logged occurrence of a routine.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"-"`
	RoutineID uuid.UUID  `json:"routine_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Status    string     `json:"status"`
}

// SessionSet is one set actually performed in a session.
type SessionSet struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	ExerciseID  uuid.UUID `json:"exercise_id"`
	SetNumber   int       `json:"set_number"`
	Reps        int       `json:"reps"`
	Weight      float64   `json:"weight"`
	IsCompleted bool      `json:"is_completed"`
}

// SessionSetInput is a set as sent by the client.
type SessionSetInput struct {
	ExerciseID  uuid.UUID `json:"exercise_id"`
	SetNumber   int       `json:"set_number"`
	Reps        int       `json:"reps"`
	Weight      float64   `json:"weight"`
	IsCompleted bool      `json:"is_completed"`
}

// ValidateSets checks every set in a submitted workout.
func ValidateSets(sets []SessionSetInput) error {
	for _, s := range sets {
		if s.ExerciseID == uuid.Nil {
			return invalid("sets.exercise_id", "is required")
		}
		if s.SetNumber < 1 {
			return invalid("sets.set_number", "must be at least 1")
		}
		if s.Reps < 0 {
			return invalid("sets.reps", "must not be negative")
		}
		if s.Weight < 0 {
			return invalid("sets.weight", "must not be negative")
		}
	}
	return nil
}

// ExerciseIDs returns the distinct exercise ids referenced by the sets.
func ExerciseIDs(sets []SessionSetInput) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(sets))
	var ids []uuid.UUID
	for _, s := range sets {
		if !seen[s.ExerciseID] {
			seen[s.ExerciseID] = true
			ids = append(ids, s.ExerciseID)
		}
	}
	return ids
}

// SessionCreate is a finished workout submitted from the phone.
type SessionCreate struct {
	// ID is optional. Resending a session with the same ID returns the stored
	// session instead of logging it twice.
	ID        uuid.UUID         `json:"id,omitzero"`
	RoutineID uuid.UUID         `json:"routine_id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Status    string            `json:"status"`
	Sets      []SessionSetInput `json:"sets"`
}

// Validate checks the payload and defaults the status to completed.
func (c *SessionCreate) Validate() error {
	if c.RoutineID == uuid.Nil {
		return invalid("routine_id", "is required")
	}
	if c.StartTime.IsZero() {
		return invalid("start_time", "is required")
	}
	if c.EndTime.IsZero() {
		return invalid("end_time", "is required")
	}
	if c.EndTime.Before(c.StartTime) {
		return invalid("end_time", "must not be before start_time")
	}
	switch c.Status {
	case "":
		c.Status = StatusCompleted
	case StatusCompleted, StatusSkipped:
	default:
		return invalid("status", "must be completed or skipped")
	}
	return ValidateSets(c.Sets)
}

// SessionUpdate replaces the logged sets of a session.
type SessionUpdate struct {
	Sets []SessionSetInput `json:"sets"`
}

// SessionRead is returned after a session is written.
type SessionRead struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// SessionSummary is one row of the history list.
type SessionSummary struct {
	ID          uuid.UUID `json:"id"`
	RoutineName string    `json:"routine_name"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
}

// SessionSetDetail is a logged set joined with its exercise name.
type SessionSetDetail struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	SetNumber    int       `json:"set_number"`
	Reps         int       `json:"reps"`
	Weight       float64   `json:"weight"`
	IsCompleted  bool      `json:"is_completed"`
}

// SessionDetail is the full read of one session.
type SessionDetail struct {
	ID              uuid.UUID          `json:"id"`
	RoutineName     string             `json:"routine_name"`
	Status          string             `json:"status"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         time.Time          `json:"end_time"`
	DurationMinutes int                `json:"duration_minutes"`
	Sets            []SessionSetDetail `json:"sets"`
}

// NewSessionDetail fills in the derived fields. A session without an end time
// ends where it started and lasts zero minutes.
func NewSessionDetail(s Session, routineName string, sets []SessionSetDetail) SessionDetail {
	end := s.StartTime
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return SessionDetail{
		ID:              s.ID,
		RoutineName:     routineName,
		Status:          s.Status,
		StartTime:       s.StartTime,
		EndTime:         end,
		DurationMinutes: DurationMinutes(s.StartTime, end),
		Sets:            sets,
	}
}

// DurationMinutes returns the whole minutes between start and end, never negative.
func DurationMinutes(start, end time.Time) int {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// UserStats summarises completed sessions.
type UserStats struct {
	TotalWorkouts     int        `json:"total_workouts"`
	WorkoutsThisMonth int        `json:"workouts_this_month"`
	LastWorkoutDate   *time.Time `json:"last_workout_date"`
}

// StartOfMonth returns midnight UTC on the first day of now's month.
func StartOfMonth(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// RoutineSummary is a routine of an active plan with its last completion.
type RoutineSummary struct {
	ID              uuid.UUID  `json:"id"`
	PlanID          uuid.UUID  `json:"plan_id"`
	Name            string     `json:"name"`
	DayOfWeek       *int       `json:"day_of_week"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
}
