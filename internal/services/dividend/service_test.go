package dividend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// --- Mocks ---

type mockClient struct {
	aRows   []models.ADividendRow
	hkRows  []models.HKDividendRow
	err     error
	symbols []string
}

func (m *mockClient) GetASpotSymbols(_ context.Context) ([]models.SymbolEntry, error) {
	return nil, nil
}
func (m *mockClient) GetHKSpotSymbols(_ context.Context) ([]models.SymbolEntry, error) {
	return nil, nil
}
func (m *mockClient) GetHKMainBoardSymbols(_ context.Context) ([]models.SymbolEntry, error) {
	return nil, nil
}
func (m *mockClient) GetAIndividualInfo(_ context.Context, _ string) (*models.CanonicalSecurity, error) {
	return nil, nil
}
func (m *mockClient) GetHKSecurityName(_ context.Context, _ string) (string, error) {
	return "", nil
}
func (m *mockClient) GetHKDailyClose(_ context.Context, _ string) (float64, error) {
	return 0, nil
}
func (m *mockClient) GetHKHistClose(_ context.Context, _ string) (float64, error) {
	return 0, nil
}
func (m *mockClient) GetADividendHistory(_ context.Context, symbol string) ([]models.ADividendRow, error) {
	m.symbols = append(m.symbols, symbol)
	return m.aRows, m.err
}
func (m *mockClient) GetHKDividendHistory(_ context.Context, symbol string) ([]models.HKDividendRow, error) {
	m.symbols = append(m.symbols, symbol)
	return m.hkRows, m.err
}
func (m *mockClient) GetFXSpotQuotes(_ context.Context) (*models.Table, error) {
	return nil, nil
}
func (m *mockClient) GetBOCRates(_ context.Context, _ string) (*models.Table, error) {
	return nil, nil
}

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(client *mockClient) *Service {
	svc := NewService(client, common.NewSilentLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func aRow(announcedDaysAgo int, perTen float64, paid time.Time) models.ADividendRow {
	return models.ADividendRow{AnnouncedAt: daysAgo(announcedDaysAgo), PerTen: perTen, HasPerTen: true, PaidAt: paid}
}

// --- A-share ---

func TestGetDividendA_TrailingWindowSum(t *testing.T) {
	client := &mockClient{aRows: []models.ADividendRow{
		aRow(200, 5, daysAgo(190)),
		aRow(400, 3, daysAgo(390)),
	}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	require.True(t, d.OK())
	assert.Equal(t, 0.5, *d.Amount)
	assert.Empty(t, d.Err)
	assert.Equal(t, []string{daysAgo(190).Format(models.DateLayout), daysAgo(390).Format(models.DateLayout)}, d.RecentDates)
}

func TestGetDividendA_WindowBoundaryIsInclusive(t *testing.T) {
	client := &mockClient{aRows: []models.ADividendRow{aRow(365, 4, time.Time{}), aRow(366, 100, time.Time{})}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	require.True(t, d.OK())
	assert.Equal(t, 0.4, *d.Amount)
}

func TestGetDividendA_FallbackToFirstTwoRows(t *testing.T) {
	client := &mockClient{aRows: []models.ADividendRow{
		aRow(380, 3, daysAgo(370)),
		aRow(560, 2, daysAgo(550)),
		aRow(740, 10, daysAgo(730)),
	}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	require.True(t, d.OK())
	assert.Equal(t, 0.5, *d.Amount)
}

func TestGetDividendA_ZeroInWindowFallsBack(t *testing.T) {
	client := &mockClient{aRows: []models.ADividendRow{
		aRow(30, 0, time.Time{}),
		aRow(400, 12.5, daysAgo(395)),
	}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	require.True(t, d.OK())
	assert.Equal(t, 1.25, *d.Amount)
}

func TestGetDividendA_AllZeroIsAbsent(t *testing.T) {
	client := &mockClient{aRows: []models.ADividendRow{
		aRow(10, 0, daysAgo(5)),
		{AnnouncedAt: daysAgo(400), HasPerTen: false, PaidAt: daysAgo(395)},
	}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	assert.False(t, d.OK())
	assert.Nil(t, d.Amount)
	assert.Equal(t, MsgAZeroAmount, d.Err)
	assert.NotNil(t, d.RecentDates)
	assert.Empty(t, d.RecentDates)
}

func TestGetDividendA_SixDecimalRounding(t *testing.T) {
	client := &mockClient{aRows: []models.ADividendRow{
		aRow(100, 1.2345678, time.Time{}),
		aRow(200, 0.1, time.Time{}),
	}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	require.True(t, d.OK())
	assert.Equal(t, 0.133457, *d.Amount)
}

func TestGetDividendA_RecentDatesChronological(t *testing.T) {
	// Provider order deliberately mixed; the latest two payment dates win.
	client := &mockClient{aRows: []models.ADividendRow{
		aRow(100, 2, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		aRow(50, 3, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)),
		aRow(300, 1, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		aRow(20, 0, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)),
		aRow(400, 4, time.Time{}),
	}}

	d := newTestService(client).GetDividend(context.Background(), "600519", models.MarketA)
	assert.Equal(t, []string{"2025-01-10", "2024-07-01"}, d.RecentDates)
}

func TestGetDividendA_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"empty history", models.ErrNoData, MsgNoARecords},
		{"too few columns", &models.SchemaError{Function: "stock_dividend_cninfo", Reason: "too few columns", Columns: []string{"a", "b"}}, "数据列数异常: [a b]"},
		{"transport", errors.New("connection reset"), "connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestService(&mockClient{err: tt.err}).GetDividend(context.Background(), "600519", models.MarketA)
			assert.Nil(t, d.Amount)
			assert.Equal(t, tt.want, d.Err)
			assert.Equal(t, []string{}, d.RecentDates)
		})
	}
}

// --- HK ---

func TestGetDividendHK_ParsesHKDEquivalent(t *testing.T) {
	client := &mockClient{hkRows: []models.HKDividendRow{
		{AnnouncedAt: daysAgo(30), Plan: "每股派息1.013元(相当于港币1.118595元)", ExDate: daysAgo(10)},
	}}

	d := newTestService(client).GetDividend(context.Background(), "3968", models.MarketHK)
	require.True(t, d.OK())
	assert.Equal(t, 1.118595, *d.Amount)
	assert.Equal(t, []string{"03968"}, client.symbols)
	assert.Equal(t, []string{daysAgo(10).Format(models.DateLayout)}, d.RecentDates)
}

func TestGetDividendHK_TrailingSumAndProviderOrderDates(t *testing.T) {
	client := &mockClient{hkRows: []models.HKDividendRow{
		{AnnouncedAt: daysAgo(20), Plan: "每股派港币0.5元", ExDate: time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)},
		{AnnouncedAt: daysAgo(60), Plan: "不分配", ExDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{AnnouncedAt: daysAgo(200), Plan: "每股派息1.2元", ExDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)},
		{AnnouncedAt: daysAgo(380), Plan: "每股派息9元", ExDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}}

	d := newTestService(client).GetDividend(context.Background(), "00700", models.MarketHK)
	require.True(t, d.OK())
	assert.Equal(t, 1.7, *d.Amount)
	assert.Equal(t, []string{"2025-04-20", "2024-09-01"}, d.RecentDates)
}

func TestGetDividendHK_FallbackToFirstTwoRows(t *testing.T) {
	client := &mockClient{hkRows: []models.HKDividendRow{
		{AnnouncedAt: daysAgo(400), Plan: "每股派息0.3元"},
		{AnnouncedAt: daysAgo(580), Plan: "每股派息0.2元"},
		{AnnouncedAt: daysAgo(760), Plan: "每股派息5元"},
	}}

	d := newTestService(client).GetDividend(context.Background(), "00700", models.MarketHK)
	require.True(t, d.OK())
	assert.Equal(t, 0.5, *d.Amount)
}

func TestGetDividendHK_UnparseableIsAbsent(t *testing.T) {
	client := &mockClient{hkRows: []models.HKDividendRow{
		{AnnouncedAt: daysAgo(10), Plan: "不分配", ExDate: daysAgo(5)},
	}}

	d := newTestService(client).GetDividend(context.Background(), "00700", models.MarketHK)
	assert.Nil(t, d.Amount)
	assert.Equal(t, MsgHKZeroAmount, d.Err)
	assert.Empty(t, d.RecentDates)
}

func TestGetDividendHK_EmptyHistory(t *testing.T) {
	d := newTestService(&mockClient{err: models.ErrNoData}).GetDividend(context.Background(), "00700", models.MarketHK)
	assert.Nil(t, d.Amount)
	assert.Equal(t, MsgNoHKRecords, d.Err)
}

func TestAnnouncedDescending(t *testing.T) {
	assert.True(t, announcedDescending([]models.DividendRecord{{AnnouncedAt: daysAgo(1)}, {}, {AnnouncedAt: daysAgo(5)}}))
	assert.False(t, announcedDescending([]models.DividendRecord{{AnnouncedAt: daysAgo(5)}, {AnnouncedAt: daysAgo(1)}}))
}
