package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
	"github.com/kostadinov1/gym-backend/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListPlans(ctx context.Context, includeArchived bool, userID uuid.UUID) ([]models.Plan, error)
	GetPlanDetail(ctx context.Context, planID, userID uuid.UUID) (*models.PlanDetail, error)
	ListActiveRoutines(ctx context.Context, userID uuid.UUID) ([]models.RoutineSummary, error)
	GetRoutineStart(ctx context.Context, routineID, userID uuid.UUID) (*models.RoutineStart, error)
	QueryHistory(ctx context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionSummary, error)
	GetSessionDetail(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionDetail, error)
	GetStats(ctx context.Context, now time.Time, userID uuid.UUID) (*models.UserStats, error)
	ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
