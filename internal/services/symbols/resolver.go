package symbols

import (
	"context"
	"strings"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// Resolver maps a user query to a canonical security using a direct code
// lookup first and the cached symbol universe second.
type Resolver struct {
	client interfaces.MarketDataClient
	cache  interfaces.SymbolCache
	logger *common.Logger
}

var _ interfaces.SymbolResolver = (*Resolver)(nil)

// NewResolver creates a new resolver.
func NewResolver(client interfaces.MarketDataClient, cache interfaces.SymbolCache, logger *common.Logger) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// Resolve never returns an error; upstream failures move on to the next
// strategy and end in not-found.
func (r *Resolver) Resolve(ctx context.Context, query string, market models.Market) (*models.CanonicalSecurity, bool) {
	if query == "" {
		return nil, false
	}
	if market == models.MarketHK {
		return r.resolveHK(ctx, query)
	}
	return r.resolveA(ctx, query)
}

func (r *Resolver) resolveA(ctx context.Context, query string) (*models.CanonicalSecurity, bool) {
	if models.IsDigits(query) {
		sec, err := r.client.GetAIndividualInfo(ctx, query)
		if err == nil {
			return sec, true
		}
		r.logger.Warn().Err(err).Str("query", query).Msg("A-share code lookup failed, trying symbol cache")
	}

	entry, ok := r.match(ctx, models.MarketA, query)
	if !ok {
		return nil, false
	}

	sec, err := r.client.GetAIndividualInfo(ctx, entry.Code)
	if err != nil {
		r.logger.Debug().Err(err).Str("code", entry.Code).Msg("A-share live lookup failed, using cached identity")
		return &models.CanonicalSecurity{Symbol: entry.Code, Name: entry.Name}, true
	}
	sec.Symbol = entry.Code
	sec.Name = entry.Name
	return sec, true
}

func (r *Resolver) resolveHK(ctx context.Context, query string) (*models.CanonicalSecurity, bool) {
	if models.IsDigits(query) {
		return r.lookupHK(ctx, query), true
	}

	entry, ok := r.match(ctx, models.MarketHK, query)
	if !ok {
		return nil, false
	}

	sec := r.lookupHK(ctx, entry.Code)
	if entry.Name != "" {
		sec.Name = entry.Name
	}
	return sec, true
}

// lookupHK always yields a security: the name defaults to the padded code
// and the price is absent when both price sources fail.
func (r *Resolver) lookupHK(ctx context.Context, code string) *models.CanonicalSecurity {
	code = models.PadHKCode(code)
	sec := &models.CanonicalSecurity{Symbol: code, Name: code}

	if name, err := r.client.GetHKSecurityName(ctx, code); err != nil {
		r.logger.Debug().Err(err).Str("code", code).Msg("HK security profile unavailable")
	} else {
		sec.Name = name
	}

	price, err := r.client.GetHKDailyClose(ctx, code)
	if err != nil {
		r.logger.Debug().Err(err).Str("code", code).Msg("HK daily close unavailable, trying history")
		price, err = r.client.GetHKHistClose(ctx, code)
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("code", code).Msg("HK price unavailable")
		return sec
	}
	sec.CurrentPrice = models.Float64Ptr(price)
	return sec
}

// match returns the first cached entry whose code equals the query or whose
// name contains it. HK codes in the query are compared zero-padded.
func (r *Resolver) match(ctx context.Context, market models.Market, query string) (models.SymbolEntry, bool) {
	entries, err := r.cache.LoadUniverse(ctx, market)
	if err != nil {
		r.logger.Warn().Err(err).Str("market", string(market)).Msg("Symbol cache unavailable")
		return models.SymbolEntry{}, false
	}

	code := query
	if market == models.MarketHK && models.IsDigits(query) {
		code = models.PadHKCode(query)
	}
	for _, e := range entries {
		if e.Code == code || strings.Contains(e.Name, query) {
			return e, true
		}
	}

	r.logger.Debug().Str("market", string(market)).Str("query", query).Int("universe", len(entries)).Msg("No symbol match")
	return models.SymbolEntry{}, false
}
