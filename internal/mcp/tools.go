package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// timeRange parses optional start/end arguments. A missing end means now and
// a missing start means days before end. A date-only end covers that whole day.
func timeRange(startStr, endStr string, now time.Time, days int) (time.Time, time.Time, error) {
	var start, end time.Time

	if endStr != "" {
		t, dateOnly, err := parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
		if dateOnly {
			end = end.AddDate(0, 0, 1)
		}
	} else {
		end = now
	}

	if startStr != "" {
		t, _, err := parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, bool, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, false, nil
	}
	t, err = time.Parse(time.DateOnly, s)
	if err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

// --- Tool definitions ---

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List workout plans with their date ranges. Only active plans unless include_archived is set."),
	mcp.WithBoolean("include_archived", mcp.Description("Also return archived plans. Defaults to false.")),
)

var toolGetPlan = mcp.NewTool("get_plan",
	mcp.WithDescription("Get one plan with its routines and each routine's exercise targets (sets, reps, weight, rest, increment)."),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Plan UUID")),
)

var toolListRoutines = mcp.NewTool("list_routines",
	mcp.WithDescription("List the routines of all active plans with the time each was last completed."),
)

var toolPreviewRoutine = mcp.NewTool("preview_routine",
	mcp.WithDescription("Preview the next session of a routine: per exercise the last weight used and the target weight for every set after progressive overload."),
	mcp.WithString("routine_id", mcp.Required(), mcp.Description("Routine UUID")),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("List logged sessions (routine name, date, status), newest first."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get one logged session with duration and every set (exercise, reps, weight, completed)."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session UUID")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Total completed workouts, completed workouts this calendar month (UTC) and the last workout date."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise library: built-in exercises plus the user's custom ones, with default increment and unit."),
)

// --- Tool handlers ---

func (h *handlers) listPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := h.ds.ListPlans(ctx, req.GetBool("include_archived", false), userID(ctx))
	return h.result("list_plans", plans, err)
}

func (h *handlers) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(req, "plan_id")
	if errResult != nil {
		return errResult, nil
	}
	plan, err := h.ds.GetPlanDetail(ctx, id, userID(ctx))
	return h.result("get_plan", plan, err)
}

func (h *handlers) listRoutines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	routines, err := h.ds.ListActiveRoutines(ctx, userID(ctx))
	return h.result("list_routines", routines, err)
}

func (h *handlers) previewRoutine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(req, "routine_id")
	if errResult != nil {
		return errResult, nil
	}
	start, err := h.ds.GetRoutineStart(ctx, id, userID(ctx))
	return h.result("preview_routine", start, err)
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := timeRange(req.GetString("start", ""), req.GetString("end", ""), h.now(), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	sessions, err := h.ds.QueryHistory(ctx, start, end, userID(ctx))
	return h.result("get_history", sessions, err)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, errResult := requireID(req, "session_id")
	if errResult != nil {
		return errResult, nil
	}
	detail, err := h.ds.GetSessionDetail(ctx, id, userID(ctx))
	return h.result("get_session", detail, err)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetStats(ctx, h.now(), userID(ctx))
	return h.result("get_stats", stats, err)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx, userID(ctx))
	return h.result("list_exercises", exercises, err)
}

// requireID reads a required UUID argument.
func requireID(req mcp.CallToolRequest, name string) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString(name)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(name + " parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(name + " must be a UUID")
	}
	return id, nil
}

// result turns a data source reply into a tool result. Failures are reported
// to the model as tool errors rather than protocol errors.
func (h *handlers) result(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, models.ErrNotFound) {
		return mcp.NewToolResultError("not found"), nil
	}
	if err != nil {
		h.log.Error("mcp "+tool, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
