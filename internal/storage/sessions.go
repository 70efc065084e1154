package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kostadinov1/gym-backend/internal/models"
)

func scanSessionSets(rows pgx.Rows) ([]models.SessionSet, error) {
	defer rows.Close()
	var result []models.SessionSet
	for rows.Next() {
		var s models.SessionSet
		if err := rows.Scan(&s.ID, &s.SessionID, &s.ExerciseID, &s.SetNumber, &s.Reps, &s.Weight, &s.IsCompleted); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// insertSessionSets batch-inserts the sets of one session.
func insertSessionSets(ctx context.Context, tx pgx.Tx, sessionID uuid.UUID, sets []models.SessionSetInput) error {
	if len(sets) == 0 {
		return nil
	}

	query := `INSERT INTO session_sets (id, session_id, exercise_id, set_number, reps, weight, is_completed) VALUES `
	args := make([]any, 0, len(sets)*7)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 7
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args, uuid.New(), sessionID, s.ExerciseID, s.SetNumber, s.Reps, s.Weight, s.IsCompleted)
	}

	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return fmt.Errorf("inserting session sets: %w", err)
	}
	return nil
}

// FinishSession records a finished workout and its sets in one transaction.
// When in.ID names a session the user already logged, that session is
// returned unchanged.
func (db *DB) FinishSession(ctx context.Context, in models.SessionCreate, userID uuid.UUID) (*models.SessionRead, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	out := &models.SessionRead{ID: in.ID, Status: in.Status}
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		if in.ID != uuid.Nil {
			replayed, err := existingSession(ctx, tx, in.ID, userID, out)
			if err != nil || replayed {
				return err
			}
		}
		if _, err := ownedRoutine(ctx, tx, in.RoutineID, userID); err != nil {
			return err
		}
		if err := checkExercisesVisible(ctx, tx, models.ExerciseIDs(in.Sets), userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO workout_sessions (id, user_id, routine_id, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, out.ID, userID, in.RoutineID, in.StartTime, in.EndTime, in.Status)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return models.ErrSessionIDTaken
			}
			return fmt.Errorf("inserting session: %w", err)
		}
		return insertSessionSets(ctx, tx, out.ID, in.Sets)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// existingSession loads a session by ID into out. It reports false when no
// such session exists and ErrSessionIDTaken when another user owns it.
func existingSession(ctx context.Context, tx pgx.Tx, id, userID uuid.UUID, out *models.SessionRead) (bool, error) {
	var owner uuid.UUID
	var status string
	err := tx.QueryRow(ctx,
		`SELECT user_id, status FROM workout_sessions WHERE id = $1`, id,
	).Scan(&owner, &status)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("querying session: %w", err)
	case owner != userID:
		return false, models.ErrSessionIDTaken
	}
	out.Status = status
	return true, nil
}

// ReplaceSessionSets swaps all logged sets of a session for the given ones.
// Either every old set is replaced or nothing changes.
func (db *DB) ReplaceSessionSets(ctx context.Context, sessionID uuid.UUID, sets []models.SessionSetInput, userID uuid.UUID) (*models.SessionRead, error) {
	if err := models.ValidateSets(sets); err != nil {
		return nil, err
	}
	out := &models.SessionRead{ID: sessionID}
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT status FROM workout_sessions WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			sessionID, userID).Scan(&out.Status)
		if err != nil {
			return notFound(err, "querying session")
		}
		if err := checkExercisesVisible(ctx, tx, models.ExerciseIDs(sets), userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM session_sets WHERE session_id = $1`, sessionID); err != nil {
			return fmt.Errorf("deleting session sets: %w", err)
		}
		return insertSessionSets(ctx, tx, sessionID, sets)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSession removes one of the user's sessions and its sets.
func (db *DB) DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM workout_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetSessionDetail returns a session with its sets ordered by exercise then
// set number.
func (db *DB) GetSessionDetail(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionDetail, error) {
	var s models.Session
	var routineName string
	err := db.Pool.QueryRow(ctx, `
		SELECT s.id, s.user_id, s.routine_id, s.start_time, s.end_time, s.status, r.name
		FROM workout_sessions s
		JOIN workout_routines r ON r.id = s.routine_id
		WHERE s.id = $1 AND s.user_id = $2
	`, sessionID, userID).Scan(&s.ID, &s.UserID, &s.RoutineID, &s.StartTime, &s.EndTime, &s.Status, &routineName)
	if err != nil {
		return nil, notFound(err, "querying session")
	}

	sets, err := db.sessionSetDetails(ctx, []uuid.UUID{sessionID})
	if err != nil {
		return nil, err
	}
	detail := models.NewSessionDetail(s, routineName, sets[sessionID])
	if detail.Sets == nil {
		detail.Sets = []models.SessionSetDetail{}
	}
	return &detail, nil
}

// sessionSetDetails loads the sets of several sessions keyed by session ID.
func (db *DB) sessionSetDetails(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]models.SessionSetDetail, error) {
	result := make(map[uuid.UUID][]models.SessionSetDetail, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT ss.session_id, ss.exercise_id, e.name, ss.set_number, ss.reps, ss.weight, ss.is_completed
		FROM session_sets ss
		JOIN exercises e ON e.id = ss.exercise_id
		WHERE ss.session_id = ANY($1)
		ORDER BY e.name ASC, ss.exercise_id ASC, ss.set_number ASC
	`, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID uuid.UUID
		var d models.SessionSetDetail
		if err := rows.Scan(&sessionID, &d.ExerciseID, &d.ExerciseName, &d.SetNumber, &d.Reps, &d.Weight, &d.IsCompleted); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		result[sessionID] = append(result[sessionID], d)
	}
	return result, rows.Err()
}

