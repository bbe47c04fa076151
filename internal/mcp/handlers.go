package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/datenollm/internal/history"
	"github.com/ziadkadry99/datenollm/internal/orchestrator"
)

// handleAsk runs one query generation turn.
func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	out, err := s.orch.Ask(ctx, message, request.GetString("params", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// handleFilter runs a filtering request over the supplied data.
func (s *Server) handleFilter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}
	rawData, err := request.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: data"), nil
	}

	var data any
	if err := json.Unmarshal([]byte(rawData), &data); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("data is not valid JSON: %v", err)), nil
	}
	h, err := decodeHistory(request.GetString("history", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := s.orch.Filter(ctx, orchestrator.FilterRequest{Message: message, History: h, Data: data})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("filter failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

// handleHistoryContext returns the feedback-bearing pairs of a history.
func (s *Server) handleHistoryContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("history")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: history"), nil
	}
	h, err := decodeHistory(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := history.Marshal(history.ToContext(h))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding context: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func decodeHistory(raw string) (history.History, error) {
	if raw == "" {
		return history.History{}, nil
	}
	var h history.History
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("history is not a valid JSON array of turns: %v", err)
	}
	return h, nil
}
