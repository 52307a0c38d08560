// Package dividend aggregates upstream dividend histories into a trailing
// annual per-share figure and the most recent payment dates.
package dividend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// Failure reasons surfaced to the user.
const (
	MsgNoARecords   = "无分红记录"
	MsgNoHKRecords  = "无港股分红记录"
	MsgAZeroAmount  = "近期现金分红金额为 0"
	MsgHKZeroAmount = "分红金额解析为 0"
	msgColumnCount  = "数据列数异常: %v"
)

const (
	// recentDates is how many payment dates a summary carries.
	recentDates = 2
	// fallbackRows is how many leading provider rows stand in for a year
	// when nothing was announced inside the trailing window.
	fallbackRows = 2
	// amountPlaces is the rounding precision of the reported amount.
	amountPlaces = 6
)

var perTen = decimal.NewFromInt(10)

// Service implements interfaces.DividendService.
type Service struct {
	client interfaces.MarketDataClient
	logger *common.Logger
	now    func() time.Time
}

var _ interfaces.DividendService = (*Service)(nil)

// NewService creates a new dividend service.
func NewService(client interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// GetDividend returns the trailing cash dividend for a symbol. It never
// fails; reasons are reported in DividendSummary.Err.
func (s *Service) GetDividend(ctx context.Context, symbol string, market models.Market) models.DividendSummary {
	if market == models.MarketHK {
		return s.getHK(ctx, symbol)
	}
	return s.getA(ctx, symbol)
}

func (s *Service) getA(ctx context.Context, symbol string) models.DividendSummary {
	rows, err := s.client.GetADividendHistory(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("A-share dividend history unavailable")
		return failure(describe(err, MsgNoARecords))
	}

	entries := make([]models.DividendRecord, 0, len(rows))
	for _, r := range rows {
		rec := models.DividendRecord{AnnouncedAt: r.AnnouncedAt, PaymentDate: r.PaidAt, PerShare: decimal.Zero}
		if r.HasPerTen && r.PerTen > 0 {
			rec.PerShare = decimal.NewFromFloat(r.PerTen).Div(perTen)
			rec.IsCash = true
		}
		entries = append(entries, rec)
	}

	dates := latestChronological(entries)
	if amount, ok := s.aggregate(symbol, entries); ok {
		return models.DividendSummary{Amount: amount, RecentDates: dates}
	}
	return models.DividendSummary{RecentDates: dates, Err: MsgAZeroAmount}
}

func (s *Service) getHK(ctx context.Context, symbol string) models.DividendSummary {
	code := models.PadHKCode(symbol)
	rows, err := s.client.GetHKDividendHistory(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", code).Msg("HK dividend history unavailable")
		return failure(describe(err, MsgNoHKRecords))
	}

	entries := make([]models.DividendRecord, 0, len(rows))
	for _, r := range rows {
		rec := models.DividendRecord{AnnouncedAt: r.AnnouncedAt, PaymentDate: r.ExDate, PerShare: decimal.Zero}
		if amount := ParseHKDAmount(r.Plan); amount.IsPositive() {
			rec.PerShare = amount
			rec.IsCash = true
		}
		entries = append(entries, rec)
	}

	dates := firstInProviderOrder(entries)
	if amount, ok := s.aggregate(code, entries); ok {
		return models.DividendSummary{Amount: amount, RecentDates: dates}
	}
	return models.DividendSummary{RecentDates: dates, Err: MsgHKZeroAmount}
}

// aggregate sums amounts announced inside the trailing window. When that is
// not positive it falls back to the first provider rows.
func (s *Service) aggregate(symbol string, entries []models.DividendRecord) (*float64, bool) {
	cutoff := s.now().Add(-common.TrailingWindow)

	total := decimal.Zero
	for _, e := range entries {
		if !e.AnnouncedAt.IsZero() && !e.AnnouncedAt.Before(cutoff) {
			total = total.Add(e.PerShare)
		}
	}
	if total.IsPositive() {
		return roundedAmount(total), true
	}

	if !announcedDescending(entries) {
		s.logger.Warn().Str("symbol", symbol).Msg("Dividend history not in descending announcement order, fallback rows may not be the latest")
	}
	total = decimal.Zero
	for i := 0; i < len(entries) && i < fallbackRows; i++ {
		total = total.Add(entries[i].PerShare)
	}
	if total.IsPositive() {
		s.logger.Debug().Str("symbol", symbol).Msg("No dividend inside trailing window, using latest rows")
		return roundedAmount(total), true
	}
	return nil, false
}

func roundedAmount(d decimal.Decimal) *float64 {
	return models.Float64Ptr(d.Round(amountPlaces).InexactFloat64())
}

// latestChronological returns the payment dates of positive rows, latest two
// by date, most recent first.
func latestChronological(entries []models.DividendRecord) []string {
	var paid []time.Time
	for _, e := range entries {
		if e.IsCash && !e.PaymentDate.IsZero() {
			paid = append(paid, e.PaymentDate)
		}
	}
	sort.SliceStable(paid, func(i, j int) bool { return paid[i].Before(paid[j]) })

	dates := make([]string, 0, recentDates)
	for i := len(paid) - 1; i >= 0 && len(dates) < recentDates; i-- {
		dates = append(dates, paid[i].Format(models.DateLayout))
	}
	return dates
}

// firstInProviderOrder returns the dates of the first positive rows as the
// provider listed them.
func firstInProviderOrder(entries []models.DividendRecord) []string {
	dates := make([]string, 0, recentDates)
	for _, e := range entries {
		if len(dates) == recentDates {
			break
		}
		if e.IsCash && !e.PaymentDate.IsZero() {
			dates = append(dates, e.PaymentDate.Format(models.DateLayout))
		}
	}
	return dates
}

// announcedDescending reports whether dated rows are in non-increasing
// announcement order.
func announcedDescending(entries []models.DividendRecord) bool {
	var prev time.Time
	for _, e := range entries {
		if e.AnnouncedAt.IsZero() {
			continue
		}
		if !prev.IsZero() && e.AnnouncedAt.After(prev) {
			return false
		}
		prev = e.AnnouncedAt
	}
	return true
}

func failure(msg string) models.DividendSummary {
	return models.DividendSummary{RecentDates: []string{}, Err: msg}
}

// describe maps an adapter error to the user-facing reason.
func describe(err error, noData string) string {
	if errors.Is(err, models.ErrNoData) {
		return noData
	}
	var schemaErr *models.SchemaError
	if errors.As(err, &schemaErr) && len(schemaErr.Columns) > 0 {
		return fmt.Sprintf(msgColumnCount, schemaErr.Columns)
	}
	return err.Error()
}
