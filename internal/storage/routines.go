package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kostadinov1/gym-backend/internal/models"
)

const routineExerciseColumns = `re.id, re.routine_id, re.exercise_id, e.name, re.order_index,
	re.target_sets, re.target_reps, re.target_weight, re.rest_seconds, re.increment_value`

func scanRoutineExercises(rows pgx.Rows) ([]models.RoutineExercise, error) {
	defer rows.Close()
	var result []models.RoutineExercise
	for rows.Next() {
		var t models.RoutineExercise
		if err := rows.Scan(&t.ID, &t.RoutineID, &t.ExerciseID, &t.Name, &t.OrderIndex,
			&t.TargetSets, &t.TargetReps, &t.TargetWeight, &t.RestSeconds, &t.IncrementValue); err != nil {
			return nil, fmt.Errorf("scanning routine exercise: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// ownedRoutine loads a routine whose plan belongs to the user.
func ownedRoutine(ctx context.Context, q interface {
	QueryRow(context.Context, string, ...any) pgx.Row
}, routineID, userID uuid.UUID) (*models.Routine, error) {
	var r models.Routine
	err := q.QueryRow(ctx, `
		SELECT r.id, r.plan_id, r.name, r.day_of_week, r.routine_type
		FROM workout_routines r
		JOIN workout_plans p ON p.id = r.plan_id
		WHERE r.id = $1 AND p.user_id = $2
	`, routineID, userID).Scan(&r.ID, &r.PlanID, &r.Name, &r.DayOfWeek, &r.RoutineType)
	if err != nil {
		return nil, notFound(err, "querying routine")
	}
	return &r, nil
}

// AddRoutine creates a routine inside one of the user's plans.
func (db *DB) AddRoutine(ctx context.Context, planID uuid.UUID, in models.RoutineCreate, userID uuid.UUID) (*models.Routine, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r := models.Routine{
		ID:          uuid.New(),
		PlanID:      planID,
		Name:        in.Name,
		DayOfWeek:   in.DayOfWeek,
		RoutineType: in.RoutineType,
	}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM workout_plans WHERE id = $1 AND user_id = $2`,
			planID, userID).Scan(&id)
		if err != nil {
			return notFound(err, "querying plan")
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO workout_routines (id, plan_id, name, day_of_week, routine_type)
			VALUES ($1, $2, $3, $4, $5)
		`, r.ID, r.PlanID, r.Name, r.DayOfWeek, r.RoutineType)
		if err != nil {
			return fmt.Errorf("inserting routine: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRoutine removes a routine with its targets and unfinished sessions.
// Routines with completed sessions are kept and models.ErrRoutineHasHistory
// is returned.
func (db *DB) DeleteRoutine(ctx context.Context, routineID, userID uuid.UUID) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedRoutine(ctx, tx, routineID, userID); err != nil {
			return err
		}
		var hasHistory bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM workout_sessions WHERE routine_id = $1 AND status = 'completed')`,
			routineID).Scan(&hasHistory)
		if err != nil {
			return fmt.Errorf("checking routine history: %w", err)
		}
		if hasHistory {
			return models.ErrRoutineHasHistory
		}
		if _, err := tx.Exec(ctx, `DELETE FROM workout_routines WHERE id = $1`, routineID); err != nil {
			return fmt.Errorf("deleting routine: %w", err)
		}
		return nil
	})
}

// AddRoutineExercise attaches an exercise target to one of the user's
// routines. The exercise must be visible to the user; a missing increment
// falls back to the exercise's default increment.
func (db *DB) AddRoutineExercise(ctx context.Context, routineID uuid.UUID, in models.RoutineExerciseCreate, userID uuid.UUID) (*models.RoutineExercise, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out models.RoutineExercise
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := ownedRoutine(ctx, tx, routineID, userID); err != nil {
			return err
		}
		ex, err := visibleExercise(ctx, tx, in.ExerciseID, userID, false)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrExerciseNotFound
			}
			return err
		}
		out = in.Resolve(routineID, *ex)
		_, err = tx.Exec(ctx, `
			INSERT INTO routine_exercises (id, routine_id, exercise_id, order_index,
				target_sets, target_reps, target_weight, rest_seconds, increment_value)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, out.ID, out.RoutineID, out.ExerciseID, out.OrderIndex,
			out.TargetSets, out.TargetReps, out.TargetWeight, out.RestSeconds, out.IncrementValue)
		if err != nil {
			return fmt.Errorf("inserting routine exercise: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteRoutineExercise removes a target from one of the user's routines.
func (db *DB) DeleteRoutineExercise(ctx context.Context, targetID, userID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `
		DELETE FROM routine_exercises re
		USING workout_routines r, workout_plans p
		WHERE re.id = $1 AND r.id = re.routine_id AND p.id = r.plan_id AND p.user_id = $2
	`, targetID, userID)
	if err != nil {
		return fmt.Errorf("deleting routine exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListActiveRoutines returns the routines of the user's active plans with the
// end time of the most recent completed session of each.
func (db *DB) ListActiveRoutines(ctx context.Context, userID uuid.UUID) ([]models.RoutineSummary, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT r.id, r.plan_id, r.name, r.day_of_week,
			(SELECT MAX(COALESCE(s.end_time, s.start_time))
			 FROM workout_sessions s
			 WHERE s.routine_id = r.id AND s.user_id = $1 AND s.status = 'completed')
		FROM workout_routines r
		JOIN workout_plans p ON p.id = r.plan_id
		WHERE p.user_id = $1 AND p.is_active
		ORDER BY p.start_date ASC, r.day_of_week ASC NULLS LAST, r.name ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying active routines: %w", err)
	}
	defer rows.Close()

	result := []models.RoutineSummary{}
	for rows.Next() {
		var r models.RoutineSummary
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Name, &r.DayOfWeek, &r.LastCompletedAt); err != nil {
			return nil, fmt.Errorf("scanning routine summary: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetRoutineStart builds the pre-session preview of a routine: one entry per
// target in order, with set targets computed from the last completed session
// that logged the exercise.
func (db *DB) GetRoutineStart(ctx context.Context, routineID, userID uuid.UUID) (*models.RoutineStart, error) {
	r, err := ownedRoutine(ctx, db.Pool, routineID, userID)
	if err != nil {
		return nil, err
	}

	targetRows, err := db.Pool.Query(ctx,
		`SELECT `+routineExerciseColumns+`
		 FROM routine_exercises re
		 JOIN exercises e ON e.id = re.exercise_id
		 WHERE re.routine_id = $1
		 ORDER BY re.order_index ASC, re.id ASC`,
		routineID)
	if err != nil {
		return nil, fmt.Errorf("querying routine exercises: %w", err)
	}
	targets, err := scanRoutineExercises(targetRows)
	if err != nil {
		return nil, err
	}

	start := &models.RoutineStart{
		RoutineID: r.ID,
		Name:      r.Name,
		Exercises: make([]models.ExercisePreview, 0, len(targets)),
	}
	for _, t := range targets {
		last, err := db.lastLoggedSets(ctx, routineID, t.ExerciseID, userID)
		if err != nil {
			return nil, err
		}
		start.Exercises = append(start.Exercises, models.BuildPreview(t, last))
	}
	return start, nil
}

// lastLoggedSets returns the sets of an exercise from the user's most recent
// completed session of the routine that logged it.
func (db *DB) lastLoggedSets(ctx context.Context, routineID, exerciseID, userID uuid.UUID) ([]models.SessionSet, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT ss.id, ss.session_id, ss.exercise_id, ss.set_number, ss.reps, ss.weight, ss.is_completed
		FROM session_sets ss
		WHERE ss.exercise_id = $2 AND ss.session_id = (
			SELECT s.id
			FROM workout_sessions s
			WHERE s.routine_id = $1 AND s.user_id = $3 AND s.status = 'completed'
			  AND EXISTS (SELECT 1 FROM session_sets x WHERE x.session_id = s.id AND x.exercise_id = $2)
			ORDER BY s.start_time DESC
			LIMIT 1
		)
		ORDER BY ss.set_number ASC
	`, routineID, exerciseID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying last sets: %w", err)
	}
	return scanSessionSets(rows)
}
