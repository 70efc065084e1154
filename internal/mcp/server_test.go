package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/auth"
	"github.com/kostadinov1/gym-backend/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeSource records the user it was asked about and serves canned data.
type fakeSource struct {
	gotUser     uuid.UUID
	gotArchived bool
	gotStart    time.Time
	gotEnd      time.Time
	plan        *models.PlanDetail
}

func (f *fakeSource) ListPlans(_ context.Context, includeArchived bool, userID uuid.UUID) ([]models.Plan, error) {
	f.gotUser, f.gotArchived = userID, includeArchived
	return []models.Plan{{ID: uuid.New(), Name: "Block A", IsActive: true}}, nil
}

func (f *fakeSource) GetPlanDetail(_ context.Context, planID, userID uuid.UUID) (*models.PlanDetail, error) {
	f.gotUser = userID
	if f.plan == nil || f.plan.ID != planID {
		return nil, models.ErrNotFound
	}
	return f.plan, nil
}

func (f *fakeSource) ListActiveRoutines(_ context.Context, userID uuid.UUID) ([]models.RoutineSummary, error) {
	f.gotUser = userID
	return []models.RoutineSummary{}, nil
}

func (f *fakeSource) GetRoutineStart(_ context.Context, routineID, userID uuid.UUID) (*models.RoutineStart, error) {
	f.gotUser = userID
	return &models.RoutineStart{RoutineID: routineID, Name: "Pull Day"}, nil
}

func (f *fakeSource) QueryHistory(_ context.Context, start, end time.Time, userID uuid.UUID) ([]models.SessionSummary, error) {
	f.gotUser, f.gotStart, f.gotEnd = userID, start, end
	return []models.SessionSummary{{ID: uuid.New(), RoutineName: "Pull Day", Status: "completed"}}, nil
}

func (f *fakeSource) GetSessionDetail(_ context.Context, sessionID, userID uuid.UUID) (*models.SessionDetail, error) {
	f.gotUser = userID
	return nil, models.ErrNotFound
}

func (f *fakeSource) GetStats(_ context.Context, _ time.Time, userID uuid.UUID) (*models.UserStats, error) {
	f.gotUser = userID
	return &models.UserStats{TotalWorkouts: 12, WorkoutsThisMonth: 3}, nil
}

func (f *fakeSource) ListExercises(_ context.Context, userID uuid.UUID) ([]models.Exercise, error) {
	f.gotUser = userID
	return []models.Exercise{{ID: uuid.New(), Name: "Deadlift", DefaultIncrement: 5, Unit: "kg"}}, nil
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{
		ds:  ds,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestToolsUseContextUser verifies tools pass the authenticated user to the data source.
func TestToolsUseContextUser(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)
	uid := uuid.New()
	ctx := auth.WithUserID(context.Background(), uid)

	res, err := h.listPlans(ctx, callRequest(map[string]any{"include_archived": true}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if ds.gotUser != uid {
		t.Errorf("user = %s, want %s", ds.gotUser, uid)
	}
	if !ds.gotArchived {
		t.Error("include_archived was not forwarded")
	}

	var plans []models.Plan
	if err := json.Unmarshal([]byte(resultText(t, res)), &plans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plans) != 1 || plans[0].Name != "Block A" {
		t.Errorf("plans = %+v", plans)
	}
}

// TestGetPlanArguments covers missing, malformed and unknown plan ids.
func TestGetPlanArguments(t *testing.T) {
	planID := uuid.New()
	h := newHandlers(&fakeSource{plan: &models.PlanDetail{Plan: models.Plan{ID: planID, Name: "Block A"}}})
	ctx := context.Background()

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"missing", map[string]any{}, true},
		{"not a uuid", map[string]any{"plan_id": "42"}, true},
		{"unknown", map[string]any{"plan_id": uuid.NewString()}, true},
		{"found", map[string]any{"plan_id": planID.String()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.getPlan(ctx, callRequest(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if res.IsError != tt.wantErr {
				t.Errorf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultText(t, res))
			}
		})
	}
}

// TestGetSessionNotFound verifies a missing session is a tool error, not a protocol error.
func TestGetSessionNotFound(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.getSession(context.Background(), callRequest(map[string]any{"session_id": uuid.NewString()}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || resultText(t, res) != "not found" {
		t.Errorf("result = %+v, want not found error", res)
	}
}

// TestGetHistoryDefaultRange verifies the history tool defaults to the last 30 days.
func TestGetHistoryDefaultRange(t *testing.T) {
	ds := &fakeSource{}
	h := newHandlers(ds)
	if _, err := h.getHistory(context.Background(), callRequest(nil)); err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC); !ds.gotStart.Equal(want) {
		t.Errorf("start = %v, want %v", ds.gotStart, want)
	}
	if want := h.now(); !ds.gotEnd.Equal(want) {
		t.Errorf("end = %v, want %v", ds.gotEnd, want)
	}

	res, err := h.getHistory(context.Background(), callRequest(map[string]any{"start": "last week"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error for invalid start")
	}
}

// TestStatsResource verifies the stats resource is served as JSON text.
func TestStatsResource(t *testing.T) {
	h := newHandlers(&fakeSource{})
	var req mcp.ReadResourceRequest
	req.Params.URI = "gymtrack://stats"

	contents, err := h.statsResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", contents[0])
	}
	var stats models.UserStats
	if err := json.Unmarshal([]byte(tc.Text), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalWorkouts != 12 || stats.WorkoutsThisMonth != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestTimeRange verifies defaults and parsing of the optional date arguments.
func TestTimeRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	start, end, err := timeRange("", "", now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !end.Equal(now) || !start.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("default range = %v..%v", start, end)
	}

	// Date-only end includes the whole day
	start, end, err = timeRange("2024-01-01", "2024-01-31", now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if !end.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want 2024-02-01", end)
	}

	// RFC3339
	start, _, err = timeRange("2024-06-15T10:30:00Z", "", now, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	// Invalid
	if _, _, err = timeRange("not-a-date", "", now, 7); err == nil {
		t.Error("expected error for invalid date")
	}
}
