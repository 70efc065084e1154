package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kostadinov1/gym-backend/internal/models"
)

// QueryHistory lists the user's sessions that started in [start, end), newest first.
func (db *DB) QueryHistory(ctx context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, r.name, s.start_time, s.status
		 FROM workout_sessions s
		 JOIN workout_routines r ON r.id = s.routine_id
		 WHERE s.user_id = $1 AND s.start_time >= $2 AND s.start_time < $3
		 ORDER BY s.start_time DESC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	result := []models.SessionSummary{}
	for rows.Next() {
		var s models.SessionSummary
		if err := rows.Scan(&s.ID, &s.RoutineName, &s.Date, &s.Status); err != nil {
			return nil, fmt.Errorf("scanning session summary: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ExportSessions returns full session details for every session in
// [start, end), oldest first, for spreadsheet export.
func (db *DB) ExportSessions(ctx context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionDetail, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.user_id, s.routine_id, s.start_time, s.end_time, s.status, r.name
		 FROM workout_sessions s
		 JOIN workout_routines r ON r.id = s.routine_id
		 WHERE s.user_id = $1 AND s.start_time >= $2 AND s.start_time < $3
		 ORDER BY s.start_time ASC`,
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying sessions for export: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	var names []string
	for rows.Next() {
		var s models.Session
		var name string
		if err := rows.Scan(&s.ID, &s.UserID, &s.RoutineID, &s.StartTime, &s.EndTime, &s.Status, &name); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	sets, err := db.sessionSetDetails(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.SessionDetail, 0, len(sessions))
	for i, s := range sessions {
		result = append(result, models.NewSessionDetail(s, names[i], sets[s.ID]))
	}
	return result, nil
}
