package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler handles MCP tool requests and responses: parses input, calls the service, formats MCP result.
type Handler struct {
	service analyticsService
}

func NewHandler(service analyticsService) *Handler {
	return &Handler{
		service: service,
	}
}

// ExerciseStatsInput is the input for get_exercise_stats.
type ExerciseStatsInput struct {
	Owner    string `json:"owner" jsonschema:"Owner identity (account email) whose records are analyzed"`
	Category string `json:"category,omitempty" jsonschema:"Filter by category (Chest, Back, Shoulder, Triceps, Biceps, Legs or All)"`
}

// GetExerciseStatsTool returns the MCP tool handler for get_exercise_stats.
func (h *Handler) GetExerciseStatsTool() func(context.Context, *mcp.CallToolRequest, ExerciseStatsInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in ExerciseStatsInput) (*mcp.CallToolResult, any, error) {
		stats, err := h.service.ExerciseStats(ctx, in.Owner, in.Category)
		if err != nil {
			return errorResult("Error computing exercise stats: " + err.Error()), nil, nil
		}
		return jsonResult(stats), nil, nil
	}
}

// OwnerInput is the input for tools that only need the owner identity.
type OwnerInput struct {
	Owner string `json:"owner" jsonschema:"Owner identity (account email) whose records are analyzed"`
}

// GetProfileInsightsTool returns the MCP tool handler for get_profile_insights.
func (h *Handler) GetProfileInsightsTool() func(context.Context, *mcp.CallToolRequest, OwnerInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in OwnerInput) (*mcp.CallToolResult, any, error) {
		report, err := h.service.ProfileInsights(ctx, in.Owner)
		if err != nil {
			return errorResult("Error computing profile insights: " + err.Error()), nil, nil
		}
		return jsonResult(report), nil, nil
	}
}

// WeightSeriesInput is the input for get_weight_series.
type WeightSeriesInput struct {
	Owner        string `json:"owner" jsonschema:"Owner identity (account email) whose records are analyzed"`
	ExerciseName string `json:"exercise_name,omitempty" jsonschema:"Limit the series to one exercise, exact name (e.g. Bench Press)"`
}

// GetWeightSeriesTool returns the MCP tool handler for get_weight_series.
func (h *Handler) GetWeightSeriesTool() func(context.Context, *mcp.CallToolRequest, WeightSeriesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in WeightSeriesInput) (*mcp.CallToolResult, any, error) {
		series, err := h.service.WeightSeries(ctx, in.Owner, in.ExerciseName)
		if err != nil {
			return errorResult("Error computing weight series: " + err.Error()), nil, nil
		}
		return jsonResult(series), nil, nil
	}
}

// CatalogSearchInput is the input for search_exercise_catalog.
type CatalogSearchInput struct {
	Query    string `json:"query,omitempty" jsonschema:"Case-insensitive part of the exercise name"`
	Category string `json:"category,omitempty" jsonschema:"Filter by category (Chest, Back, Shoulder, Triceps, Biceps, Legs or All)"`
}

// SearchCatalogTool returns the MCP tool handler for search_exercise_catalog.
func (h *Handler) SearchCatalogTool() func(context.Context, *mcp.CallToolRequest, CatalogSearchInput) (*mcp.CallToolResult, any, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, in CatalogSearchInput) (*mcp.CallToolResult, any, error) {
		entries, err := h.service.SearchCatalog(in.Query, in.Category)
		if err != nil {
			return errorResult("Error searching catalog: " + err.Error()), nil, nil
		}
		return jsonResult(entries), nil, nil
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("Error encoding response: " + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}
