// Package symbols provides the per-market symbol universe cache and the
// query resolver built on it.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// ErrUnknownMarket is returned for markets without a symbol source.
var ErrUnknownMarket = errors.New("unknown market")

// Cache serves symbol universes from disk while younger than the TTL and
// refetches the full listing otherwise.
type Cache struct {
	client interfaces.MarketDataClient
	store  interfaces.SymbolStore
	ttl    time.Duration
	logger *common.Logger
	now    func() time.Time
	group  singleflight.Group
}

var _ interfaces.SymbolCache = (*Cache)(nil)

// NewCache creates a new symbol cache. A non-positive ttl uses
// common.FreshnessSymbolUniverse.
func NewCache(client interfaces.MarketDataClient, store interfaces.SymbolStore, ttl time.Duration, logger *common.Logger) *Cache {
	if ttl <= 0 {
		ttl = common.FreshnessSymbolUniverse
	}
	return &Cache{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// LoadUniverse returns the market's symbol list. A fresh artifact is
// returned verbatim; otherwise the listing is refetched and persisted.
// Concurrent misses for one market share a single fetch.
//
// HK fetch failures yield an empty list and nil error so direct code lookup
// still works. A-share fetch failures and unreadable fresh artifacts are
// returned as errors.
func (c *Cache) LoadUniverse(ctx context.Context, market models.Market) ([]models.SymbolEntry, error) {
	if entries, ok, err := c.loadFresh(ctx, market); ok || err != nil {
		return entries, err
	}

	v, err, shared := c.group.Do(string(market), func() (interface{}, error) {
		// The fetch outlives any single caller; the client timeout bounds it.
		ctx := context.WithoutCancel(ctx)
		// A caller that missed just before another refresh landed finds it here.
		if entries, ok, err := c.loadFresh(ctx, market); ok || err != nil {
			return entries, err
		}
		return c.fetch(ctx, market)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug().Str("market", string(market)).Msg("Symbol cache refresh shared")
	}
	return v.([]models.SymbolEntry), nil
}

// Refresh refetches and persists the market's listing regardless of age.
// A refresh already in flight for the market, forced or not, is joined.
func (c *Cache) Refresh(ctx context.Context, market models.Market) ([]models.SymbolEntry, error) {
	v, err, _ := c.group.Do(string(market), func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx), market)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.SymbolEntry), nil
}

// loadFresh reports ok when a fresh artifact was found and read.
func (c *Cache) loadFresh(ctx context.Context, market models.Market) ([]models.SymbolEntry, bool, error) {
	updated, err := c.store.UpdatedAt(ctx, market)
	if err != nil {
		return nil, false, err
	}
	if updated.IsZero() || !common.IsFreshAt(c.now(), updated, c.ttl) {
		return nil, false, nil
	}

	entries, err := c.store.LoadSymbols(ctx, market)
	if err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

func (c *Cache) fetch(ctx context.Context, market models.Market) ([]models.SymbolEntry, error) {
	switch market {
	case models.MarketA:
		return c.fetchA(ctx)
	case models.MarketHK:
		return c.fetchHK(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMarket, market)
	}
}

func (c *Cache) fetchA(ctx context.Context) ([]models.SymbolEntry, error) {
	c.logger.Info().Msg("A-share symbol cache stale or missing, fetching full listing")
	start := time.Now()

	entries, err := c.client.GetASpotSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch A-share listing: %w", err)
	}
	if err := c.store.SaveSymbols(ctx, models.MarketA, entries); err != nil {
		return nil, err
	}

	c.logger.Info().Int("count", len(entries)).Dur("elapsed", time.Since(start)).Msg("A-share symbol cache refreshed")
	return entries, nil
}

func (c *Cache) fetchHK(ctx context.Context) ([]models.SymbolEntry, error) {
	c.logger.Info().Msg("HK symbol cache stale or missing, fetching listing")

	sources := []struct {
		name  string
		fetch func(context.Context) ([]models.SymbolEntry, error)
	}{
		{"spot", c.client.GetHKSpotSymbols},
		{"main_board", c.client.GetHKMainBoardSymbols},
	}

	for _, src := range sources {
		entries, err := src.fetch(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Str("source", src.name).Msg("HK listing source failed")
			continue
		}
		if err := c.store.SaveSymbols(ctx, models.MarketHK, entries); err != nil {
			return nil, err
		}
		c.logger.Info().Int("count", len(entries)).Str("source", src.name).Msg("HK symbol cache refreshed")
		return entries, nil
	}

	c.logger.Error().Msg("HK listing unavailable, name search disabled until next refresh")
	return []models.SymbolEntry{}, nil
}
