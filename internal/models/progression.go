package models

import "github.com/google/uuid"

// SetTarget is what the lifter should aim for on one set.
type SetTarget struct {
	SetNumber    int     `json:"set_number"`
	TargetReps   int     `json:"target_reps"`
	TargetWeight float64 `json:"target_weight"`
}

// ExercisePreview is one exercise of a workout about to start.
type ExercisePreview struct {
	ExerciseID     uuid.UUID   `json:"exercise_id"`
	Name           string      `json:"name"`
	Sets           []SetTarget `json:"sets"`
	IncrementValue float64     `json:"increment_value"`
	RestSeconds    int         `json:"rest_seconds"`
	LastWeight     *float64    `json:"last_weight"`
}

// RoutineStart is the preview returned before a session begins.
type RoutineStart struct {
	RoutineID uuid.UUID         `json:"routine_id"`
	Name      string            `json:"name"`
	Exercises []ExercisePreview `json:"exercises"`
}

// BuildPreview computes the targets for the next session of an exercise.
//
// last holds the sets of this exercise from the most recent completed session
// of the routine, or nothing when it was never logged. Without history the
// plan's target weight is used. Otherwise the starting point is the heaviest
// completed set (heaviest set of any kind if none were completed), and the
// increment is added once target_sets sets were completed at target_reps or more.
func BuildPreview(re RoutineExercise, last []SessionSet) ExercisePreview {
	p := ExercisePreview{
		ExerciseID:     re.ExerciseID,
		Name:           re.Name,
		IncrementValue: re.IncrementValue,
		RestSeconds:    re.RestSeconds,
	}

	weight := re.TargetWeight
	if lw, ok := lastWeight(last); ok {
		p.LastWeight = &lw
		weight = lw
		if hitTarget(re, last) {
			weight = lw + re.IncrementValue
		}
	}

	p.Sets = make([]SetTarget, 0, re.TargetSets)
	for i := 1; i <= re.TargetSets; i++ {
		p.Sets = append(p.Sets, SetTarget{
			SetNumber:    i,
			TargetReps:   re.TargetReps,
			TargetWeight: weight,
		})
	}
	return p
}

func lastWeight(sets []SessionSet) (float64, bool) {
	if len(sets) == 0 {
		return 0, false
	}
	var best, bestAny float64
	completed := false
	for _, s := range sets {
		if s.Weight > bestAny {
			bestAny = s.Weight
		}
		if s.IsCompleted {
			if !completed || s.Weight > best {
				best = s.Weight
			}
			completed = true
		}
	}
	if completed {
		return best, true
	}
	return bestAny, true
}

func hitTarget(re RoutineExercise, sets []SessionSet) bool {
	good := 0
	for _, s := range sets {
		if s.IsCompleted && s.Reps >= re.TargetReps {
			good++
		}
	}
	return good >= re.TargetSets
}
