// Package fx looks up the HKD to CNY spot rate with source fallback.
package fx

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// DefaultFallbackRate is returned when every live source fails.
const DefaultFallbackRate = 0.924

const (
	minPlausibleRate = 0.5
	maxPlausibleRate = 1.5
	ratePlaces       = 6
	// BOC quotes are per 100 units of foreign currency.
	bocQuoteUnit    = 100
	bocPerUnitLimit = 10
	bocCurrency     = "港币"
)

var (
	hkdMarkers     = []string{"HKD", "港元", "港币"}
	bocRateColumns = []string{"中间价", "基准价"}
)

// Service implements interfaces.FXService.
type Service struct {
	client   interfaces.MarketDataClient
	fallback float64
	logger   *common.Logger
}

var _ interfaces.FXService = (*Service)(nil)

// NewService creates a new rate service. A non-positive fallback uses
// DefaultFallbackRate.
func NewService(client interfaces.MarketDataClient, fallback float64, logger *common.Logger) *Service {
	if fallback <= 0 {
		fallback = DefaultFallbackRate
	}
	return &Service{
		client:   client,
		fallback: fallback,
		logger:   logger,
	}
}

// GetRate returns CNY per HKD. It never fails.
func (s *Service) GetRate(ctx context.Context) float64 {
	if rate, ok := s.fromSpotQuotes(ctx); ok {
		return rate
	}
	if rate, ok := s.fromBOC(ctx); ok {
		return rate
	}
	s.logger.Warn().Float64("rate", s.fallback).Msg("HKD rate sources unavailable, using fallback")
	return s.fallback
}

// fromSpotQuotes scans for an HKD row and takes its first plausible value.
func (s *Service) fromSpotQuotes(ctx context.Context) (float64, bool) {
	table, err := s.client.GetFXSpotQuotes(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("FX spot quotes unavailable")
		return 0, false
	}

	for i := 0; i < table.Len(); i++ {
		if !containsAny(table.RowText(i), hkdMarkers) {
			continue
		}
		for _, cell := range table.Rows[i] {
			v, ok := models.CellFloat(cell)
			if ok && plausible(v) {
				return round(v), true
			}
		}
	}
	s.logger.Debug().Int("rows", table.Len()).Msg("No HKD quote in FX spot table")
	return 0, false
}

// fromBOC reads the latest mid/benchmark rate from the BOC quote history.
func (s *Service) fromBOC(ctx context.Context) (float64, bool) {
	table, err := s.client.GetBOCRates(ctx, bocCurrency)
	if err != nil {
		s.logger.Debug().Err(err).Msg("BOC rates unavailable")
		return 0, false
	}
	if table.Len() == 0 {
		return 0, false
	}

	col := table.ColumnContaining(bocRateColumns...)
	if col < 0 {
		s.logger.Debug().Strs("columns", table.Columns).Msg("No rate column in BOC table")
		return 0, false
	}

	v, ok := models.CellFloat(table.Value(table.Len()-1, col))
	if !ok {
		return 0, false
	}
	if v > bocPerUnitLimit {
		v /= bocQuoteUnit
	}
	if !plausible(v) {
		s.logger.Debug().Float64("value", v).Msg("Implausible BOC rate")
		return 0, false
	}
	return round(v), true
}

func plausible(v float64) bool {
	return v >= minPlausibleRate && v <= maxPlausibleRate
}

func round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(ratePlaces).InexactFloat64()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
