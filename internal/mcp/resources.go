package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
)

func (h *handlers) todayResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	today := calendar.Midnight(h.today())
	start := calendar.StartOfWeek(today)

	week, err := h.ds.ListTrainings(ctx, uid, storage.TrainingFilter{
		From: start.Format(models.DateLayout),
		To:   start.AddDate(0, 0, 6).Format(models.DateLayout),
	})
	if err != nil {
		return nil, err
	}

	date := today.Format(models.DateLayout)
	var todays []models.Training
	for _, t := range week {
		if t.Date == date {
			todays = append(todays, t)
		}
	}

	summary := map[string]any{
		"date":      date,
		"trainings": todays,
		"week":      calendar.WeekView(today, today, week),
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
