package app

import (
	"context"
	"os"
	"time"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// warmCache loads both symbol universes on startup so the first name search
// does not pay for a full listing fetch. Fresh artifacts are left alone.
func warmCache(ctx context.Context, cache interfaces.SymbolCache, logger *common.Logger) {
	if os.Getenv("YIELDMAPPER_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via YIELDMAPPER_WARM_CACHE=off")
		return
	}

	start := time.Now()
	for _, market := range []models.Market{models.MarketA, models.MarketHK} {
		if ctx.Err() != nil {
			logger.Info().Msg("Warm cache: cancelled")
			return
		}
		entries, err := cache.LoadUniverse(ctx, market)
		if err != nil {
			logger.Warn().Err(err).Str("market", string(market)).Msg("Warm cache: universe load failed")
			continue
		}
		logger.Info().
			Str("market", string(market)).
			Int("symbols", len(entries)).
			Msg("Warm cache: universe ready")
	}

	logger.Info().Dur("elapsed", time.Since(start)).Msg("Warm cache: complete")
}
