package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
)

// Store is the persistence the HTTP handlers need. *storage.DB implements it.
// Every owner-scoped method takes the caller's id last.
type Store interface {
	CreateUser(ctx context.Context, u models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)

	ListExercises(ctx context.Context, userID uuid.UUID) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, in models.ExerciseCreate, userID uuid.UUID) (*models.Exercise, error)
	UpdateExercise(ctx context.Context, exerciseID uuid.UUID, in models.ExerciseUpdate, userID uuid.UUID) (*models.Exercise, error)
	DeleteExercise(ctx context.Context, exerciseID, userID uuid.UUID) error

	ListPlans(ctx context.Context, includeArchived bool, userID uuid.UUID) ([]models.Plan, error)
	CreatePlan(ctx context.Context, in models.PlanCreate, userID uuid.UUID) (*models.Plan, error)
	GetPlanDetail(ctx context.Context, planID, userID uuid.UUID) (*models.PlanDetail, error)
	UpdatePlan(ctx context.Context, planID uuid.UUID, in models.PlanUpdate, userID uuid.UUID) (*models.Plan, error)
	DeletePlan(ctx context.Context, planID, userID uuid.UUID) (models.DeleteOutcome, error)

	AddRoutine(ctx context.Context, planID uuid.UUID, in models.RoutineCreate, userID uuid.UUID) (*models.Routine, error)
	DeleteRoutine(ctx context.Context, routineID, userID uuid.UUID) error
	AddRoutineExercise(ctx context.Context, routineID uuid.UUID, in models.RoutineExerciseCreate, userID uuid.UUID) (*models.RoutineExercise, error)
	DeleteRoutineExercise(ctx context.Context, targetID, userID uuid.UUID) error

	ListActiveRoutines(ctx context.Context, userID uuid.UUID) ([]models.RoutineSummary, error)
	GetRoutineStart(ctx context.Context, routineID, userID uuid.UUID) (*models.RoutineStart, error)
	FinishSession(ctx context.Context, in models.SessionCreate, userID uuid.UUID) (*models.SessionRead, error)

	QueryHistory(ctx context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionSummary, error)
	ExportSessions(ctx context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionDetail, error)
	GetStats(ctx context.Context, now time.Time, userID uuid.UUID) (*models.UserStats, error)
	GetSessionDetail(ctx context.Context, sessionID, userID uuid.UUID) (*models.SessionDetail, error)
	ReplaceSessionSets(ctx context.Context, sessionID uuid.UUID, sets []models.SessionSetInput, userID uuid.UUID) (*models.SessionRead, error)
	DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error
}
