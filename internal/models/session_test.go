package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSessionCreateValidate checks the status default and time ordering.
func TestSessionCreateValidate(t *testing.T) {
	start := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	c := SessionCreate{
		RoutineID: uuid.New(),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Sets:      []SessionSetInput{{ExerciseID: uuid.New(), SetNumber: 1, Reps: 5, Weight: 100, IsCompleted: true}},
	}
	require.NoError(t, c.Validate())
	assert.Equal(t, StatusCompleted, c.Status)

	c.Status = StatusSkipped
	assert.NoError(t, c.Validate())

	c.Status = StatusInProgress
	assert.Error(t, c.Validate())

	c.Status = ""
	c.EndTime = start.Add(-time.Minute)
	assert.Error(t, c.Validate())
}

// TestValidateSets rejects impossible set values.
func TestValidateSets(t *testing.T) {
	id := uuid.New()
	assert.NoError(t, ValidateSets(nil))
	assert.Error(t, ValidateSets([]SessionSetInput{{ExerciseID: id, SetNumber: 0}}))
	assert.Error(t, ValidateSets([]SessionSetInput{{ExerciseID: id, SetNumber: 1, Reps: -1}}))
	assert.Error(t, ValidateSets([]SessionSetInput{{ExerciseID: id, SetNumber: 1, Weight: -2.5}}))
	assert.Error(t, ValidateSets([]SessionSetInput{{SetNumber: 1}}))
}

// TestExerciseIDs returns distinct ids in first-seen order.
func TestExerciseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := ExerciseIDs([]SessionSetInput{{ExerciseID: a}, {ExerciseID: b}, {ExerciseID: a}})
	assert.Equal(t, []uuid.UUID{a, b}, got)
}

// TestNewSessionDetail verifies the end-time fallback and whole-minute duration.
func TestNewSessionDetail(t *testing.T) {
	start := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(61*time.Minute + 59*time.Second)

	d := NewSessionDetail(Session{ID: uuid.New(), StartTime: start, EndTime: &end, Status: StatusCompleted}, "Push", nil)
	assert.Equal(t, 61, d.DurationMinutes)
	assert.Equal(t, end, d.EndTime)

	d = NewSessionDetail(Session{ID: uuid.New(), StartTime: start, Status: StatusInProgress}, "Push", nil)
	assert.Equal(t, 0, d.DurationMinutes)
	assert.Equal(t, start, d.EndTime)
}

// TestStartOfMonth uses the UTC calendar.
func TestStartOfMonth(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2024, 6, 1, 1, 0, 0, 0, loc) // May 31 22:00 UTC
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(now))
}
