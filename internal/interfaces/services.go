// Package interfaces defines service contracts for YieldMapper
package interfaces

import (
	"context"

	"github.com/fanwj03/YieldMapper/internal/models"
)

// SymbolCache serves per-market symbol universes with a TTL
type SymbolCache interface {
	// LoadUniverse returns the market's symbol list, refreshing it when stale
	LoadUniverse(ctx context.Context, market models.Market) ([]models.SymbolEntry, error)

	// Refresh fetches and persists the market's universe regardless of age
	Refresh(ctx context.Context, market models.Market) ([]models.SymbolEntry, error)
}

// SymbolResolver maps a free-text query to a canonical security
type SymbolResolver interface {
	// Resolve reports false when no strategy produced a match
	Resolve(ctx context.Context, query string, market models.Market) (*models.CanonicalSecurity, bool)
}

// DividendService aggregates trailing cash dividends
type DividendService interface {
	// GetDividend never fails; problems are reported in DividendSummary.Err
	GetDividend(ctx context.Context, symbol string, market models.Market) models.DividendSummary
}

// FXService looks up the HKD/CNY spot rate
type FXService interface {
	// GetRate never fails; it falls back to a configured constant
	GetRate(ctx context.Context) float64
}

// SearchService assembles a QueryResult for one user query
type SearchService interface {
	Search(ctx context.Context, query string, market models.Market) (*models.QueryResult, error)
}

// WatchlistService manages the persisted watchlist
type WatchlistService interface {
	// List returns all stored items in insertion order
	List(ctx context.Context) ([]models.WatchlistItem, error)

	// Add assigns an id and created_at, then appends the item
	Add(ctx context.Context, item *models.WatchlistItem) (*models.WatchlistItem, error)

	// Update merges fields into the item with the given id and stamps updated_at.
	// Unknown ids are a no-op.
	Update(ctx context.Context, id string, update *models.WatchlistItem) error

	// Delete removes the item with the given id. Unknown ids are a no-op.
	Delete(ctx context.Context, id string) error
}
