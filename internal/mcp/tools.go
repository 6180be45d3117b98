package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/plans"
	"github.com/gymbucket/gymbucket/internal/storage"
)

// refDate parses an optional YYYY-MM-DD argument, defaulting to today.
func (h *handlers) refDate(s string) (time.Time, error) {
	if s == "" {
		return calendar.Midnight(h.today()), nil
	}
	return calendar.ParseDate(s, h.loc)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolListTrainings = mcp.NewTool("list_trainings",
	mcp.WithDescription("List the trainer's booked trainings ordered by date and start time. Each training has a date, HH:MM start time, duration in minutes, client, location and status."),
	mcp.WithString("from", mcp.Description("First date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("to", mcp.Description("Last date, inclusive (YYYY-MM-DD). Defaults to 7 days after from.")),
	mcp.WithString("client", mcp.Description("Case-insensitive client name filter (partial match)")),
	mcp.WithString("status", mcp.Description("Filter by status"), mcp.Enum("confirmed", "pending", "cancelled")),
)

var toolCheckConflict = mcp.NewTool("check_conflict",
	mcp.WithDescription("Check whether a proposed training would overlap an existing booking on the same date. Intervals are half-open, so a training ending at 10:00 does not conflict with one starting at 10:00."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Date (YYYY-MM-DD)")),
	mcp.WithString("start_time", mcp.Required(), mcp.Description("Start time (HH:MM)")),
	mcp.WithNumber("duration", mcp.Required(), mcp.Description("Duration in minutes")),
	mcp.WithString("exclude_id", mcp.Description("ID of a training being rescheduled, ignored in the check")),
)

var toolGetMonthCalendar = mcp.NewTool("get_month_calendar",
	mcp.WithDescription("Month view as 42 day cells (six Monday-first weeks) with per-day trainings and today/past/current-month flags."),
	mcp.WithString("date", mcp.Description("Any date in the month (YYYY-MM-DD). Defaults to today.")),
)

var toolGetWeek = mcp.NewTool("get_week",
	mcp.WithDescription("Monday-to-Sunday week view with the trainings of each day."),
	mcp.WithString("date", mcp.Description("Any date in the week (YYYY-MM-DD). Defaults to today.")),
)

var toolListWorkoutPlans = mcp.NewTool("list_workout_plans",
	mcp.WithDescription("List workout plans visible to the trainer (public plans and their own)."),
	mcp.WithString("search", mcp.Description("Text search over name, description and tags")),
	mcp.WithString("category", mcp.Enum("strength", "cardio", "flexibility", "mixed")),
	mcp.WithString("difficulty", mcp.Enum("beginner", "intermediate", "advanced")),
	mcp.WithString("muscle_group", mcp.Description("Target muscle group (e.g. 'legs', 'chest')")),
	mcp.WithBoolean("mine", mcp.Description("Only plans created by the trainer")),
)

var toolGetWorkoutPlan = mcp.NewTool("get_workout_plan",
	mcp.WithDescription("Get one workout plan with its ordered exercises, including exercise details, sets, reps and rest."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("Search the exercise catalogue."),
	mcp.WithString("search", mcp.Description("Text search over name and description")),
	mcp.WithString("muscle_group"),
	mcp.WithString("equipment"),
	mcp.WithString("difficulty", mcp.Enum("beginner", "intermediate", "advanced")),
)

// --- Tool handlers ---

func (h *handlers) listTrainings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := h.refDate(req.GetString("from", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid from date: " + err.Error()), nil
	}
	to := from.AddDate(0, 0, 7)
	if s := req.GetString("to", ""); s != "" {
		if to, err = calendar.ParseDate(s, h.loc); err != nil {
			return mcp.NewToolResultError("invalid to date: " + err.Error()), nil
		}
	}

	f := storage.TrainingFilter{
		From:   from.Format(models.DateLayout),
		To:     to.Format(models.DateLayout),
		Client: req.GetString("client", ""),
		Status: models.Status(req.GetString("status", "")),
	}
	list, err := h.ds.ListTrainings(ctx, UserIDFromContext(ctx), f)
	if err != nil {
		h.log.Error("mcp list_trainings", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(list)
}

func (h *handlers) checkConflict(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	d, err := calendar.ParseDate(raw, h.loc)
	if err != nil {
		return mcp.NewToolResultError("invalid date: " + err.Error()), nil
	}
	date := d.Format(models.DateLayout)
	start, err := req.RequireString("start_time")
	if err != nil {
		return mcp.NewToolResultError("start_time parameter is required"), nil
	}
	if _, err := calendar.ParseClock(start); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration, err := req.RequireFloat("duration")
	if err != nil {
		return mcp.NewToolResultError("duration parameter is required"), nil
	}
	var exclude uuid.UUID
	if s := req.GetString("exclude_id", ""); s != "" {
		if exclude, err = uuid.Parse(s); err != nil {
			return mcp.NewToolResultError("invalid exclude_id"), nil
		}
	}

	sameDay, err := h.ds.ListTrainings(ctx, UserIDFromContext(ctx), storage.TrainingFilter{From: date, To: date})
	if err != nil {
		h.log.Error("mcp check_conflict", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	hit, err := calendar.FindConflict(sameDay, calendar.Candidate{
		Date: date, StartTime: start, Duration: int(duration), ExcludeID: exclude,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := map[string]any{"conflict": hit != nil}
	if hit != nil {
		out["with"] = hit
		out["message"] = fmt.Sprintf("time conflict with training: %s (%s)", hit.ClientName, hit.StartTime)
	}
	return jsonResult(out)
}

func (h *handlers) getMonthCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := h.refDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date: " + err.Error()), nil
	}
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, h.loc)
	gridStart := calendar.StartOfWeek(first)
	gridEnd := gridStart.AddDate(0, 0, calendar.GridCells-1)

	list, err := h.ds.ListTrainings(ctx, UserIDFromContext(ctx), storage.TrainingFilter{
		From: gridStart.Format(models.DateLayout),
		To:   gridEnd.Format(models.DateLayout),
	})
	if err != nil {
		h.log.Error("mcp get_month_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(calendar.MonthGrid(ref, h.today(), nil, list))
}

func (h *handlers) getWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := h.refDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date: " + err.Error()), nil
	}
	start := calendar.StartOfWeek(ref)
	list, err := h.ds.ListTrainings(ctx, UserIDFromContext(ctx), storage.TrainingFilter{
		From: start.Format(models.DateLayout),
		To:   start.AddDate(0, 0, 6).Format(models.DateLayout),
	})
	if err != nil {
		h.log.Error("mcp get_week", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(calendar.WeekView(ref, h.today(), list))
}

func (h *handlers) listWorkoutPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid := UserIDFromContext(ctx)
	list, err := h.ds.ListPlans(ctx, uid)
	if err != nil {
		h.log.Error("mcp list_workout_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	f := plans.PlanFilter{
		Search:      req.GetString("search", ""),
		Category:    req.GetString("category", ""),
		Difficulty:  req.GetString("difficulty", ""),
		MuscleGroup: req.GetString("muscle_group", ""),
	}
	if req.GetBool("mine", false) {
		f.OwnerID = uid
	}
	return jsonResult(plans.FilterPlans(list, f))
}

func (h *handlers) getWorkoutPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid plan id"), nil
	}
	p, err := h.ds.GetPlan(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		return mcp.NewToolResultError("plan not found"), nil
	}
	catalog, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Warn("mcp get_workout_plan: exercise catalogue unavailable", "error", err)
	}
	plans.Enrich(p, plans.NewCatalog(catalog))
	return jsonResult(p)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(plans.FilterExercises(list, plans.ExerciseFilter{
		Search:      req.GetString("search", ""),
		MuscleGroup: req.GetString("muscle_group", ""),
		Equipment:   req.GetString("equipment", ""),
		Difficulty:  req.GetString("difficulty", ""),
	}))
}
