// Package search assembles the per-query result: resolution, dividend
// aggregation and, for HK, the exchange rate.
package search

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// NotFoundError is returned when an HK query cannot be resolved. It is the
// only request-level failure; everything else degrades into result errors.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("未找到港股「%s」，请输入股票代码（如 03968）", e.Query)
}

// Service implements interfaces.SearchService.
type Service struct {
	resolver  interfaces.SymbolResolver
	dividends interfaces.DividendService
	fx        interfaces.FXService
	logger    *common.Logger
}

var _ interfaces.SearchService = (*Service)(nil)

// NewService creates a new search service.
func NewService(resolver interfaces.SymbolResolver, dividends interfaces.DividendService, fx interfaces.FXService, logger *common.Logger) *Service {
	return &Service{
		resolver:  resolver,
		dividends: dividends,
		fx:        fx,
		logger:    logger,
	}
}

// Search resolves the query and merges dividend data into one result.
// Fields populated before an unexpected failure are kept.
func (s *Service) Search(ctx context.Context, query string, market models.Market) (result *models.QueryResult, err error) {
	result = models.NewQueryResult(query, market)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("query", query).
				Str("market", string(market)).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Search panicked")
			result.AddError(fmt.Sprint(r))
			err = nil
		}
	}()

	if market == models.MarketHK {
		if notFound := s.searchHK(ctx, query, result); notFound != nil {
			return nil, notFound
		}
		return result, nil
	}

	s.searchA(ctx, query, result)
	return result, nil
}

func (s *Service) searchA(ctx context.Context, query string, result *models.QueryResult) {
	if sec, ok := s.resolver.Resolve(ctx, query, models.MarketA); ok {
		result.ApplySecurity(sec)
	} else {
		result.AddError(fmt.Sprintf("未找到 A 股: %s，将以代码方式尝试获取分红", query))
	}

	d := s.dividends.GetDividend(ctx, result.Symbol, models.MarketA)
	if !result.ApplyDividend(d) {
		result.AddError(fmt.Sprintf("分红获取失败: %s", d.Err))
	}

	s.logger.Info().
		Str("query", query).
		Str("symbol", result.Symbol).
		Int("errors", len(result.Errors)).
		Msg("A-share search complete")
}

func (s *Service) searchHK(ctx context.Context, query string, result *models.QueryResult) *NotFoundError {
	sec, ok := s.resolver.Resolve(ctx, query, models.MarketHK)
	if !ok {
		s.logger.Info().Str("query", query).Msg("HK search found no security")
		return &NotFoundError{Query: query}
	}
	result.ApplySecurity(sec)

	d := s.dividends.GetDividend(ctx, result.Symbol, models.MarketHK)
	if !result.ApplyDividend(d) {
		result.AddError(fmt.Sprintf("港股分红获取失败: %s", d.Err))
	}

	rate := s.fx.GetRate(ctx)
	result.HKDRate = &rate

	s.logger.Info().
		Str("query", query).
		Str("symbol", result.Symbol).
		Float64("hkd_rate", rate).
		Int("errors", len(result.Errors)).
		Msg("HK search complete")
	return nil
}
