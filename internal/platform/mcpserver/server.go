// Package mcpserver exposes medicine search and review listing as Model
// Context Protocol tools.
package mcpserver

import (
	"context"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/medreview/medreview/internal/domain/review"
	"github.com/medreview/medreview/internal/domain/search"
)

// Searcher is satisfied by *search.Service.
type Searcher interface {
	Search(ctx context.Context, userID uuid.UUID, q search.Query) (*search.Result, error)
}

// ReviewLister is satisfied by *review.Service.
type ReviewLister interface {
	ListForMedicine(ctx context.Context, medicineID uuid.UUID) ([]*review.Review, error)
}

const (
	Name    = "medreview"
	Version = "0.1.0"
)

// New creates an MCP server with every tool registered.
func New(searcher Searcher, reviews ReviewLister) *mcp.Server {
	t := &Tools{Searcher: searcher, Reviews: reviews}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_medicine",
		Description: "Identify a medicine from free text, look up its FDA label and assess whether the given user can take it",
	}, t.SearchMedicine)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_medicine_reviews",
		Description: "List the reviews of a medicine, newest first",
	}, t.ListMedicineReviews)

	return srv
}
