package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kostadinov1/gym-backend/internal/models"
)

const exerciseColumns = `id, user_id, name, default_increment, unit, is_custom`

// ListExercises returns the system exercises plus the user's custom ones, by name.
func (db *DB) ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE user_id IS NULL OR user_id = $1
		 ORDER BY name ASC, id ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	result := []models.Exercise{}
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.DefaultIncrement, &e.Unit, &e.IsCustom); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CreateExercise stores a custom exercise owned by the user.
func (db *DB) CreateExercise(ctx context.Context, in models.ExerciseCreate, userID uuid.UUID) (*models.Exercise, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e := models.Exercise{
		ID:               uuid.New(),
		UserID:           &userID,
		Name:             in.Name,
		DefaultIncrement: *in.DefaultIncrement,
		Unit:             in.Unit,
		IsCustom:         true,
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.UserID, e.Name, e.DefaultIncrement, e.Unit, e.IsCustom)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise: %w", err)
	}
	return &e, nil
}

// UpdateExercise applies a partial update to one of the user's custom exercises.
func (db *DB) UpdateExercise(ctx context.Context, exerciseID uuid.UUID, in models.ExerciseUpdate, userID uuid.UUID) (*models.Exercise, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out *models.Exercise
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		e, err := visibleExercise(ctx, tx, exerciseID, userID, true)
		if err != nil {
			return err
		}
		if err := e.CheckModifiable(userID); err != nil {
			return err
		}
		in.Apply(e)
		_, err = tx.Exec(ctx,
			`UPDATE exercises SET name = $2, default_increment = $3, unit = $4 WHERE id = $1`,
			e.ID, e.Name, e.DefaultIncrement, e.Unit)
		if err != nil {
			return fmt.Errorf("updating exercise: %w", err)
		}
		out = e
		return nil
	})
	return out, err
}

// DeleteExercise removes one of the user's custom exercises. Exercises still
// referenced by routine targets or logged sets are kept and
// models.ErrExerciseInUse is returned.
func (db *DB) DeleteExercise(ctx context.Context, exerciseID, userID uuid.UUID) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		e, err := visibleExercise(ctx, tx, exerciseID, userID, true)
		if err != nil {
			return err
		}
		if err := e.CheckModifiable(userID); err != nil {
			return err
		}

		var inUse bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM routine_exercises WHERE exercise_id = $1)
			    OR EXISTS (SELECT 1 FROM session_sets WHERE exercise_id = $1)
		`, exerciseID).Scan(&inUse)
		if err != nil {
			return fmt.Errorf("checking exercise references: %w", err)
		}
		if inUse {
			return models.ErrExerciseInUse
		}

		if _, err := tx.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, exerciseID); err != nil {
			return fmt.Errorf("deleting exercise: %w", err)
		}
		return nil
	})
}

// visibleExercise loads an exercise the user can see, optionally locking it.
func visibleExercise(ctx context.Context, tx pgx.Tx, exerciseID, userID uuid.UUID, forUpdate bool) (*models.Exercise, error) {
	q := `SELECT ` + exerciseColumns + ` FROM exercises WHERE id = $1 AND (user_id IS NULL OR user_id = $2)`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	var e models.Exercise
	err := tx.QueryRow(ctx, q, exerciseID, userID).
		Scan(&e.ID, &e.UserID, &e.Name, &e.DefaultIncrement, &e.Unit, &e.IsCustom)
	if err != nil {
		return nil, notFound(err, "querying exercise")
	}
	return &e, nil
}

// checkExercisesVisible fails with models.ErrExerciseNotFound unless every id
// names an exercise the user can see.
func checkExercisesVisible(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, userID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	var n int
	err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM exercises WHERE id = ANY($1) AND (user_id IS NULL OR user_id = $2)`,
		ids, userID).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking exercises: %w", err)
	}
	if n != len(ids) {
		return models.ErrExerciseNotFound
	}
	return nil
}
