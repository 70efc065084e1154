package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target() RoutineExercise {
	return RoutineExercise{
		ExerciseID:     uuid.New(),
		Name:           "Barbell Row",
		TargetSets:     3,
		TargetReps:     8,
		TargetWeight:   60,
		RestSeconds:    120,
		IncrementValue: 2.5,
	}
}

func sets(done bool, pairs ...float64) []SessionSet {
	var out []SessionSet
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, SessionSet{
			SetNumber:   i/2 + 1,
			Reps:        int(pairs[i]),
			Weight:      pairs[i+1],
			IsCompleted: done,
		})
	}
	return out
}

func TestBuildPreview(t *testing.T) {
	tests := []struct {
		name       string
		last       []SessionSet
		wantWeight float64
		wantLast   *float64
	}{
		{
			name:       "no history uses plan target",
			last:       nil,
			wantWeight: 60,
		},
		{
			name:       "all targets hit adds increment",
			last:       sets(true, 8, 65, 8, 65, 9, 65),
			wantWeight: 67.5,
			wantLast:   ptr(65.0),
		},
		{
			name:       "missed reps repeats weight",
			last:       sets(true, 8, 65, 8, 65, 6, 65),
			wantWeight: 65,
			wantLast:   ptr(65.0),
		},
		{
			name:       "too few sets repeats weight",
			last:       sets(true, 8, 65, 8, 65),
			wantWeight: 65,
			wantLast:   ptr(65.0),
		},
		{
			name:       "nothing completed falls back to heaviest set",
			last:       sets(false, 8, 70, 8, 72.5),
			wantWeight: 72.5,
			wantLast:   ptr(72.5),
		},
		{
			name: "uncompleted heavier set is ignored",
			last: append(sets(true, 8, 65, 8, 65, 8, 65),
				SessionSet{SetNumber: 4, Reps: 2, Weight: 80}),
			wantWeight: 67.5,
			wantLast:   ptr(65.0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := BuildPreview(target(), tt.last)
			require.Len(t, p.Sets, 3)
			for i, s := range p.Sets {
				assert.Equal(t, i+1, s.SetNumber)
				assert.Equal(t, 8, s.TargetReps)
				assert.Equal(t, tt.wantWeight, s.TargetWeight)
			}
			assert.Equal(t, tt.wantLast, p.LastWeight)
			assert.Equal(t, 120, p.RestSeconds)
			assert.Equal(t, 2.5, p.IncrementValue)
		})
	}
}

func ptr[T any](v T) *T { return &v }
