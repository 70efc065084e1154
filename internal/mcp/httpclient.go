package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
)

// HTTPClient implements DataSource by calling the GymTrack REST API with a
// bearer token. Used for stdio MCP mode where the binary runs locally but the
// data lives on the server. The token identifies the user, so the userID
// arguments are ignored.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON reply into out. A 404 is returned as
// models.ErrNotFound.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return fmt.Errorf("httpclient: %s: %w", path, models.ErrNotFound)
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListPlans(ctx context.Context, includeArchived bool, _ uuid.UUID) ([]models.Plan, error) {
	params := url.Values{}
	if includeArchived {
		params.Set("include_archived", strconv.FormatBool(includeArchived))
	}
	var plans []models.Plan
	if err := c.get(ctx, "/plans", params, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *HTTPClient) GetPlanDetail(ctx context.Context, planID, _ uuid.UUID) (*models.PlanDetail, error) {
	var plan models.PlanDetail
	if err := c.get(ctx, "/plans/"+planID.String(), nil, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (c *HTTPClient) ListActiveRoutines(ctx context.Context, _ uuid.UUID) ([]models.RoutineSummary, error) {
	var routines []models.RoutineSummary
	if err := c.get(ctx, "/workouts/routines", nil, &routines); err != nil {
		return nil, err
	}
	return routines, nil
}

func (c *HTTPClient) GetRoutineStart(ctx context.Context, routineID, _ uuid.UUID) (*models.RoutineStart, error) {
	var start models.RoutineStart
	if err := c.get(ctx, "/workouts/start/"+routineID.String(), nil, &start); err != nil {
		return nil, err
	}
	return &start, nil
}

func (c *HTTPClient) QueryHistory(ctx context.Context, start, end time.Time, _ uuid.UUID) ([]models.SessionSummary, error) {
	params := url.Values{}
	params.Set("start_date", start.Format(time.RFC3339))
	params.Set("end_date", end.Format(time.RFC3339))

	var sessions []models.SessionSummary
	if err := c.get(ctx, "/history", params, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) GetSessionDetail(ctx context.Context, sessionID, _ uuid.UUID) (*models.SessionDetail, error) {
	var detail models.SessionDetail
	if err := c.get(ctx, "/history/"+sessionID.String(), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetStats ignores now: the server computes the month boundary itself.
func (c *HTTPClient) GetStats(ctx context.Context, _ time.Time, _ uuid.UUID) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.get(ctx, "/history/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) ListExercises(ctx context.Context, _ uuid.UUID) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if err := c.get(ctx, "/exercises", nil, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}
