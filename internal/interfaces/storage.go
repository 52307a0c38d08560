// Package interfaces defines service contracts for YieldMapper
package interfaces

import (
	"context"
	"time"

	"github.com/fanwj03/YieldMapper/internal/models"
)

// StorageManager coordinates the file-backed stores
type StorageManager interface {
	SymbolStore() SymbolStore
	WatchlistStore() WatchlistStore

	// DataPath returns the base data directory path.
	DataPath() string

	// Lifecycle
	Close() error
}

// SymbolStore persists per-market symbol universes. The artifact's
// modification time is its fetch time.
type SymbolStore interface {
	// UpdatedAt returns when the market's artifact was last written.
	// Zero time and nil error means no artifact exists.
	UpdatedAt(ctx context.Context, market models.Market) (time.Time, error)

	// LoadSymbols reads the market's artifact verbatim.
	LoadSymbols(ctx context.Context, market models.Market) ([]models.SymbolEntry, error)

	// SaveSymbols atomically replaces the market's artifact.
	SaveSymbols(ctx context.Context, market models.Market, entries []models.SymbolEntry) error
}

// WatchlistStore persists the watchlist document as a whole.
type WatchlistStore interface {
	// LoadWatchlist returns the stored document, or an empty one when none exists.
	LoadWatchlist(ctx context.Context) (*models.Watchlist, error)

	// SaveWatchlist atomically replaces the stored document.
	SaveWatchlist(ctx context.Context, wl *models.Watchlist) error
}
