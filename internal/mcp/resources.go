package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) statsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.ds.GetStats(ctx, h.now(), userID(ctx))
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, stats)
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	end := h.now()
	start := end.AddDate(0, 0, -14)

	sessions, err := h.ds.QueryHistory(ctx, start, end, userID(ctx))
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, sessions)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
