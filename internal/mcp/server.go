package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kostadinov1/gym-backend/internal/auth"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymTrack training log. Read workout plans, routines with their next targets, logged sessions, exercise library and workout statistics. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
		server.ServerTool{Tool: toolListRoutines, Handler: h.listRoutines},
		server.ServerTool{Tool: toolPreviewRoutine, Handler: h.previewRoutine},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetStats, Handler: h.getStats},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStats, Handler: h.statsResource},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
	)

	return s
}

// NewHTTPHandler serves s over streamable HTTP. It must sit behind the bearer
// guard, which puts the caller's id in the request context.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id, ok := auth.UserIDFromContext(r.Context()); ok {
				return auth.WithUserID(ctx, id)
			}
			return ctx
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// userID returns the caller. Over stdio there is none; the HTTPClient data
// source identifies the user by its token instead.
func userID(ctx context.Context) uuid.UUID {
	id, _ := auth.UserIDFromContext(ctx)
	return id
}

// --- Resource definitions ---

var resStats = mcp.NewResource(
	"gymtrack://stats",
	"Workout Stats",
	mcp.WithResourceDescription("Total completed workouts, workouts this month and the date of the last workout"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"gymtrack://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Sessions logged in the last 14 days"),
	mcp.WithMIMEType("application/json"),
)
