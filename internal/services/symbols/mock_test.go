package symbols

import (
	"context"
	"sync/atomic"

	"github.com/fanwj03/YieldMapper/internal/models"
)

// --- Mocks ---

type mockClient struct {
	aSpot, hkSpot, hkMainBoard func() ([]models.SymbolEntry, error)
	aInfo                      func(code string) (*models.CanonicalSecurity, error)
	hkName                     func(code string) (string, error)
	hkDaily, hkHist            func(code string) (float64, error)

	// ctx variants take precedence and observe the caller's context
	aSpotCtx, hkSpotCtx func(ctx context.Context) ([]models.SymbolEntry, error)

	aSpotCalls, hkSpotCalls, hkMainBoardCalls atomic.Int32
	aInfoCalls, hkHistCalls                   atomic.Int32
}

func (m *mockClient) GetASpotSymbols(ctx context.Context) ([]models.SymbolEntry, error) {
	m.aSpotCalls.Add(1)
	if m.aSpotCtx != nil {
		return m.aSpotCtx(ctx)
	}
	if m.aSpot == nil {
		return nil, models.ErrNoData
	}
	return m.aSpot()
}
func (m *mockClient) GetHKSpotSymbols(ctx context.Context) ([]models.SymbolEntry, error) {
	m.hkSpotCalls.Add(1)
	if m.hkSpotCtx != nil {
		return m.hkSpotCtx(ctx)
	}
	if m.hkSpot == nil {
		return nil, models.ErrNoData
	}
	return m.hkSpot()
}
func (m *mockClient) GetHKMainBoardSymbols(_ context.Context) ([]models.SymbolEntry, error) {
	m.hkMainBoardCalls.Add(1)
	if m.hkMainBoard == nil {
		return nil, models.ErrNoData
	}
	return m.hkMainBoard()
}
func (m *mockClient) GetAIndividualInfo(_ context.Context, code string) (*models.CanonicalSecurity, error) {
	m.aInfoCalls.Add(1)
	if m.aInfo == nil {
		return nil, models.ErrNoData
	}
	return m.aInfo(code)
}
func (m *mockClient) GetHKSecurityName(_ context.Context, code string) (string, error) {
	if m.hkName == nil {
		return "", models.ErrNoData
	}
	return m.hkName(code)
}
func (m *mockClient) GetHKDailyClose(_ context.Context, code string) (float64, error) {
	if m.hkDaily == nil {
		return 0, models.ErrNoData
	}
	return m.hkDaily(code)
}
func (m *mockClient) GetHKHistClose(_ context.Context, code string) (float64, error) {
	m.hkHistCalls.Add(1)
	if m.hkHist == nil {
		return 0, models.ErrNoData
	}
	return m.hkHist(code)
}
func (m *mockClient) GetADividendHistory(_ context.Context, _ string) ([]models.ADividendRow, error) {
	return nil, models.ErrNoData
}
func (m *mockClient) GetHKDividendHistory(_ context.Context, _ string) ([]models.HKDividendRow, error) {
	return nil, models.ErrNoData
}
func (m *mockClient) GetFXSpotQuotes(_ context.Context) (*models.Table, error) {
	return nil, models.ErrNoData
}
func (m *mockClient) GetBOCRates(_ context.Context, _ string) (*models.Table, error) {
	return nil, models.ErrNoData
}

type mockCache struct {
	entries map[models.Market][]models.SymbolEntry
	err     error
}

func (m *mockCache) LoadUniverse(_ context.Context, market models.Market) ([]models.SymbolEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[market], nil
}
func (m *mockCache) Refresh(ctx context.Context, market models.Market) ([]models.SymbolEntry, error) {
	return m.LoadUniverse(ctx, market)
}
