package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the trainer ID injected by the transport layer.
// Returns 0 when the request is unauthenticated.
func UserIDFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return 0
}

// WithUserID returns a context with the given trainer ID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// Calendar dates are computed in loc.
func New(ds DataSource, version string, loc *time.Location, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymBucket", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymBucket trainer scheduling server. Query the trainer's calendar, check booking conflicts, and browse workout plans and the exercise catalogue. All data is scoped to the authenticated trainer."),
	)

	h := &handlers{ds: ds, log: log, loc: loc, now: time.Now}

	s.AddTools(
		server.ServerTool{Tool: toolListTrainings, Handler: h.listTrainings},
		server.ServerTool{Tool: toolCheckConflict, Handler: h.checkConflict},
		server.ServerTool{Tool: toolGetMonthCalendar, Handler: h.getMonthCalendar},
		server.ServerTool{Tool: toolGetWeek, Handler: h.getWeek},
		server.ServerTool{Tool: toolListWorkoutPlans, Handler: h.listWorkoutPlans},
		server.ServerTool{Tool: toolGetWorkoutPlan, Handler: h.getWorkoutPlan},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
	)

	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.todayResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	loc *time.Location
	now func() time.Time
}

func (h *handlers) today() time.Time {
	return h.now().In(h.loc)
}

var resToday = mcp.NewResource(
	"gymbucket://today",
	"Today",
	mcp.WithResourceDescription("Today's trainings in time order plus the rest of the current week"),
	mcp.WithMIMEType("application/json"),
)
