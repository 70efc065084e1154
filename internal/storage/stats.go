package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kostadinov1/gym-backend/internal/models"
)

// GetStats returns totals over the user's completed sessions. The current
// month is the UTC calendar month containing now. The last workout date is
// when the latest session ended, or started if it has no end time.
func (db *DB) GetStats(ctx context.Context, now time.Time, userID uuid.UUID) (*models.UserStats, error) {
	stats := &models.UserStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE start_time >= $2),
		        MAX(COALESCE(end_time, start_time))
		 FROM workout_sessions
		 WHERE user_id = $1 AND status = 'completed'`,
		userID, models.StartOfMonth(now),
	).Scan(&stats.TotalWorkouts, &stats.WorkoutsThisMonth, &stats.LastWorkoutDate)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	return stats, nil
}
