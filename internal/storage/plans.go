package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kostadinov1/gym-backend/internal/models"
)

const planColumns = `id, user_id, name, description, duration_weeks, start_date, end_date, is_active, created_at`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var p models.Plan
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.DurationWeeks,
		&p.StartDate, &p.EndDate, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPlans(rows pgx.Rows) ([]models.Plan, error) {
	defer rows.Close()
	result := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// ListPlans returns the user's plans, newest start first. Archived plans are
// included only when includeArchived is set.
func (db *DB) ListPlans(ctx context.Context, includeArchived bool, userID uuid.UUID) ([]models.Plan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+planColumns+`
		 FROM workout_plans
		 WHERE user_id = $1 AND (is_active OR $2)
		 ORDER BY start_date DESC, created_at DESC`,
		userID, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	return scanPlans(rows)
}

// activePlans loads the user's active plans inside a transaction.
func activePlans(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]models.Plan, error) {
	rows, err := tx.Query(ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE user_id = $1 AND is_active`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying active plans: %w", err)
	}
	return scanPlans(rows)
}

// CreatePlan stores a new active plan after checking that its range does not
// overlap any other active plan of the user. The check runs under a lock on
// the user row so concurrent creates cannot both pass.
func (db *DB) CreatePlan(ctx context.Context, in models.PlanCreate, userID uuid.UUID) (*models.Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p := models.Plan{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          in.Name,
		Description:   in.Description,
		DurationWeeks: in.DurationWeeks,
		StartDate:     in.StartDate,
		EndDate:       models.PlanEndDate(in.StartDate, in.DurationWeeks),
		IsActive:      true,
	}

	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		existing, err := activePlans(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := models.CheckOverlap(existing, p.StartDate, p.EndDate, uuid.Nil); err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO workout_plans (id, user_id, name, description, duration_weeks, start_date, end_date, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`, p.ID, p.UserID, p.Name, p.Description, p.DurationWeeks, p.StartDate, p.EndDate, p.IsActive).Scan(&p.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlanDetail returns a plan with its routines and their ordered targets.
func (db *DB) GetPlanDetail(ctx context.Context, planID, userID uuid.UUID) (*models.PlanDetail, error) {
	p, err := scanPlan(db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM workout_plans WHERE id = $1 AND user_id = $2`,
		planID, userID))
	if err != nil {
		return nil, notFound(err, "querying plan")
	}
	detail := &models.PlanDetail{Plan: *p, Routines: []models.RoutineDetail{}}

	rows, err := db.Pool.Query(ctx,
		`SELECT id, plan_id, name, day_of_week, routine_type
		 FROM workout_routines
		 WHERE plan_id = $1
		 ORDER BY day_of_week ASC NULLS LAST, name ASC`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("querying routines: %w", err)
	}
	defer rows.Close()

	index := map[uuid.UUID]int{}
	for rows.Next() {
		var r models.RoutineDetail
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Name, &r.DayOfWeek, &r.RoutineType); err != nil {
			return nil, fmt.Errorf("scanning routine: %w", err)
		}
		r.Exercises = []models.RoutineExercise{}
		index[r.ID] = len(detail.Routines)
		detail.Routines = append(detail.Routines, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	targetRows, err := db.Pool.Query(ctx,
		`SELECT `+routineExerciseColumns+`
		 FROM routine_exercises re
		 JOIN exercises e ON e.id = re.exercise_id
		 JOIN workout_routines r ON r.id = re.routine_id
		 WHERE r.plan_id = $1
		 ORDER BY re.order_index ASC, re.id ASC`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("querying routine exercises: %w", err)
	}
	targets, err := scanRoutineExercises(targetRows)
	if err != nil {
		return nil, err
	}
	for _, t := range targets {
		if i, ok := index[t.RoutineID]; ok {
			detail.Routines[i].Exercises = append(detail.Routines[i].Exercises, t)
		}
	}
	return detail, nil
}

// UpdatePlan applies a partial update. Re-activating an archived plan runs the
// same overlap check as creation.
func (db *DB) UpdatePlan(ctx context.Context, planID uuid.UUID, in models.PlanUpdate, userID uuid.UUID) (*models.Plan, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *models.Plan
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		p, err := scanPlan(tx.QueryRow(ctx,
			`SELECT `+planColumns+` FROM workout_plans WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			planID, userID))
		if err != nil {
			return notFound(err, "querying plan")
		}

		if in.Reactivates(*p) {
			existing, err := activePlans(ctx, tx, userID)
			if err != nil {
				return err
			}
			if err := models.CheckOverlap(existing, p.StartDate, p.EndDate, p.ID); err != nil {
				return err
			}
		}

		in.Apply(p)
		_, err = tx.Exec(ctx,
			`UPDATE workout_plans SET name = $2, description = $3, is_active = $4 WHERE id = $1`,
			p.ID, p.Name, p.Description, p.IsActive)
		if err != nil {
			return fmt.Errorf("updating plan: %w", err)
		}
		out = p
		return nil
	})
	return out, err
}

// DeletePlan archives the plan when any of its routines has a completed
// session and hard-deletes it otherwise. Hard deletion cascades to routines,
// targets and unfinished sessions.
func (db *DB) DeletePlan(ctx context.Context, planID, userID uuid.UUID) (models.DeleteOutcome, error) {
	var outcome models.DeleteOutcome
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT id FROM workout_plans WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			planID, userID).Scan(&id)
		if err != nil {
			return notFound(err, "querying plan")
		}

		var hasHistory bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM workout_sessions s
				JOIN workout_routines r ON r.id = s.routine_id
				WHERE r.plan_id = $1 AND s.status = 'completed'
			)
		`, planID).Scan(&hasHistory)
		if err != nil {
			return fmt.Errorf("checking plan history: %w", err)
		}

		outcome = models.DeletePolicy(hasHistory)
		switch outcome {
		case models.PlanArchived:
			_, err = tx.Exec(ctx, `UPDATE workout_plans SET is_active = FALSE WHERE id = $1`, planID)
		default:
			_, err = tx.Exec(ctx, `DELETE FROM workout_plans WHERE id = $1`, planID)
		}
		if err != nil {
			return fmt.Errorf("deleting plan: %w", err)
		}
		return nil
	})
	return outcome, err
}
