package alpha

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
)

// NameKey normalises an exercise or routine name for matching.
func NameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// RoutineName is the first "·" segment of the session title, e.g. "Legs" for
// "Legs · Day 2 · Week 4 · Push-Pull-Legs".
func (s Session) RoutineName() string {
	name, _, _ := strings.Cut(s.Title, "·")
	return strings.TrimSpace(name)
}

// ExerciseNames lists the distinct exercise names in order of first appearance.
func (s Session) ExerciseNames() []string {
	seen := make(map[string]bool, len(s.Exercises))
	var names []string
	for _, e := range s.Exercises {
		key := NameKey(e.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, e.Name)
	}
	return names
}

// WorkingSets counts the non-warm-up sets.
func (s Session) WorkingSets() int {
	n := 0
	for _, e := range s.Exercises {
		for _, set := range e.Sets {
			if !set.Warmup {
				n++
			}
		}
	}
	return n
}

// ToSessionCreate builds a completed-session payload. exerciseIDs is keyed by
// NameKey. Warm-up sets are dropped and the working sets of each exercise are
// numbered from 1, continuing when an exercise appears twice.
func (s Session) ToSessionCreate(routineID uuid.UUID, exerciseIDs map[string]uuid.UUID) (models.SessionCreate, error) {
	in := models.SessionCreate{
		RoutineID: routineID,
		StartTime: s.Start,
		EndTime:   s.Start.Add(s.Duration),
		Status:    models.StatusCompleted,
		Sets:      []models.SessionSetInput{},
	}

	next := make(map[uuid.UUID]int)
	for _, e := range s.Exercises {
		id, ok := exerciseIDs[NameKey(e.Name)]
		if !ok {
			return models.SessionCreate{}, fmt.Errorf("no exercise id for %q", e.Name)
		}
		for _, set := range e.Sets {
			if set.Warmup {
				continue
			}
			next[id]++
			in.Sets = append(in.Sets, models.SessionSetInput{
				ExerciseID:  id,
				SetNumber:   next[id],
				Reps:        set.Reps,
				Weight:      set.Weight,
				IsCompleted: true,
			})
		}
	}
	return in, nil
}
