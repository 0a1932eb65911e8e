// Package store persists converted listings and consistency results.
package store

import (
	"context"

	"github.com/flatcheck/flatcheck/internal/model"
)

// ResultFilter specifies criteria for listing stored results.
type ResultFilter struct {
	ListingID string             `json:"listing_id,omitempty"`
	Source    model.ResultSource `json:"source,omitempty"`
	Limit     int                `json:"limit,omitempty"`
	Offset    int                `json:"offset,omitempty"`
}

// Store defines the persistence interface for the check pipeline. Every run
// appends rows; history is kept so repeated checks of a listing remain
// comparable over time.
type Store interface {
	// Listings
	SaveListing(ctx context.Context, listing *model.Listing) error
	GetListing(ctx context.Context, listingID string) (*model.Listing, error)

	// Results
	SaveResult(ctx context.Context, result *model.ConsistencyResult) error
	LatestResult(ctx context.Context, listingID string) (*model.ConsistencyResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]model.ConsistencyResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
