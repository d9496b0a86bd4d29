package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medreview/medreview/internal/domain/review"
	"github.com/medreview/medreview/internal/domain/search"
)

type Tools struct {
	Searcher Searcher
	Reviews  ReviewLister
}

type SearchMedicineInput struct {
	UserID string `json:"user_id" jsonschema:"ID of the user whose profile the safety check uses"`
	Query  string `json:"query" jsonschema:"Free text naming a medicine, e.g. a brand name"`
}

type ListMedicineReviewsInput struct {
	MedicineID string `json:"medicine_id" jsonschema:"ID of the medicine"`
}

func (t *Tools) SearchMedicine(ctx context.Context, _ *mcp.CallToolRequest, input SearchMedicineInput) (*mcp.CallToolResult, any, error) {
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return toolError("user_id must be a UUID"), nil, nil
	}
	if input.Query == "" {
		return toolError("query is required"), nil, nil
	}

	res, err := t.Searcher.Search(ctx, userID, search.Query{Text: input.Query})
	switch {
	case err == nil:
		return toolJSON(res)
	case errors.Is(err, search.ErrPatientNotFound):
		return toolError("User not found"), nil, nil
	case errors.Is(err, search.ErrExtractionFailed):
		return toolError("Could not extract medicine name"), nil, nil
	case errors.Is(err, search.ErrLookupFailed):
		return toolError("Medicine not found"), nil, nil
	default:
		return toolError("Search failed: %v", err), nil, nil
	}
}

func (t *Tools) ListMedicineReviews(ctx context.Context, _ *mcp.CallToolRequest, input ListMedicineReviewsInput) (*mcp.CallToolResult, any, error) {
	id, err := uuid.Parse(input.MedicineID)
	if err != nil {
		return toolError("medicine_id must be a UUID"), nil, nil
	}
	items, err := t.Reviews.ListForMedicine(ctx, id)
	if errors.Is(err, review.ErrMedicineNotFound) {
		return toolError("Medicine not found"), nil, nil
	}
	if err != nil {
		return toolError("Failed to list reviews: %v", err), nil, nil
	}
	if items == nil {
		items = []*review.Review{}
	}
	return toolJSON(items)
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
