// Package watchlist provides watchlist management over the persisted document
package watchlist

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// TimestampLayout is the local-time ISO format used for created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Compile-time interface check
var _ interfaces.WatchlistService = (*Service)(nil)

// Service implements WatchlistService. Every mutation rewrites the whole
// document; mu serializes writers within this process only.
type Service struct {
	storage interfaces.StorageManager
	logger  *common.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// NewService creates a new watchlist service
func NewService(storage interfaces.StorageManager, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns all items in insertion order
func (s *Service) List(ctx context.Context) ([]models.WatchlistItem, error) {
	wl, err := s.storage.WatchlistStore().LoadWatchlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	return wl.Stocks, nil
}

// Add stamps a new item with a millisecond-timestamp id and created_at, then
// appends it. Client-supplied id and timestamps are replaced.
func (s *Service) Add(ctx context.Context, item *models.WatchlistItem) (*models.WatchlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl, err := s.storage.WatchlistStore().LoadWatchlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}

	now := s.now()
	ms := now.UnixMilli()
	// Two adds inside one millisecond would otherwise collide.
	for wl.Find(strconv.FormatInt(ms, 10)) >= 0 {
		ms++
	}

	added := models.WatchlistItem{
		ID:        strconv.FormatInt(ms, 10),
		CreatedAt: now.Format(TimestampLayout),
		Fields:    item.Fields,
	}
	wl.Stocks = append(wl.Stocks, added)

	if err := s.storage.WatchlistStore().SaveWatchlist(ctx, wl); err != nil {
		return nil, fmt.Errorf("failed to save watchlist: %w", err)
	}

	s.logger.Info().Str("id", added.ID).Msg("Watchlist item added")
	return &added, nil
}

// Update merges fields into an existing item and stamps updated_at.
// An unknown id leaves the document unchanged.
func (s *Service) Update(ctx context.Context, id string, update *models.WatchlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl, err := s.storage.WatchlistStore().LoadWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("failed to get watchlist: %w", err)
	}

	idx := wl.Find(id)
	if idx < 0 {
		s.logger.Debug().Str("id", id).Msg("Watchlist item not found for update")
		return nil
	}

	existing := &wl.Stocks[idx]
	existing.Merge(update)
	existing.UpdatedAt = s.now().Format(TimestampLayout)

	if err := s.storage.WatchlistStore().SaveWatchlist(ctx, wl); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}

	s.logger.Info().Str("id", id).Msg("Watchlist item updated")
	return nil
}

// Delete removes every item with the given id. An unknown id leaves the
// document unchanged.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wl, err := s.storage.WatchlistStore().LoadWatchlist(ctx)
	if err != nil {
		return fmt.Errorf("failed to get watchlist: %w", err)
	}

	kept := wl.Stocks[:0]
	for _, item := range wl.Stocks {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(wl.Stocks) {
		s.logger.Debug().Str("id", id).Msg("Watchlist item not found for delete")
		return nil
	}
	wl.Stocks = kept

	if err := s.storage.WatchlistStore().SaveWatchlist(ctx, wl); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}

	s.logger.Info().Str("id", id).Msg("Watchlist item removed")
	return nil
}
