package aktools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fanwj03/YieldMapper/internal/models"
)

// fakeAKTools serves canned bodies per function and records the queries it saw.
type fakeAKTools struct {
	mu      sync.Mutex
	bodies  map[string]string
	status  map[string]int
	queries map[string]url.Values
}

func newFakeAKTools(t *testing.T, bodies map[string]string) (*fakeAKTools, *Client) {
	t.Helper()
	f := &fakeAKTools{bodies: bodies, status: map[string]int{}, queries: map[string]url.Values{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn := strings.TrimPrefix(r.URL.Path, "/api/public/")
		f.mu.Lock()
		f.queries[fn] = r.URL.Query()
		status, hasStatus := f.status[fn]
		body, ok := f.bodies[fn]
		f.mu.Unlock()

		if hasStatus {
			w.WriteHeader(status)
			w.Write([]byte("upstream exploded"))
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	client.now = func() time.Time { return time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC) }
	return f, client
}

func (f *fakeAKTools) query(fn string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[fn]
}

func TestDecodeTable_PreservesColumnOrder(t *testing.T) {
	body := `[{"z":1,"a":"x","m":2.5},{"z":2,"a":"y","m":null}]`
	table, err := DecodeTable(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "x", models.CellString(table.Value(0, 1)))
	f, ok := models.CellFloat(table.Value(0, 2))
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
	assert.Nil(t, table.Value(1, 2))
}

func TestDecodeTable_LateColumnsPadEarlierRows(t *testing.T) {
	table, err := DecodeTable(strings.NewReader(`[{"a":1},{"a":2,"b":3}]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, table.Columns)
	require.Len(t, table.Rows[0], 2)
	assert.Nil(t, table.Value(0, 1))
	assert.Equal(t, "3", models.CellString(table.Value(1, 1)))
}

func TestDecodeTable_NullAndEmpty(t *testing.T) {
	table, err := DecodeTable(strings.NewReader(`null`))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())

	table, err = DecodeTable(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestDecodeTable_RejectsNonArray(t *testing.T) {
	_, err := DecodeTable(strings.NewReader(`{"a":1}`))
	assert.Error(t, err)

	_, err = DecodeTable(strings.NewReader(`[1,2]`))
	assert.Error(t, err)
}

func TestCall_NonOKIsUpstreamError(t *testing.T) {
	f, client := newFakeAKTools(t, nil)
	f.mu.Lock()
	f.status[FuncASpot] = http.StatusInternalServerError
	f.mu.Unlock()

	_, err := client.GetASpotSymbols(context.Background())
	require.Error(t, err)

	var upErr *models.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, FuncASpot, upErr.Function)
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Contains(t, upErr.Error(), "upstream exploded")
}

func TestCall_UndecodableBodyIsUpstreamError(t *testing.T) {
	_, client := newFakeAKTools(t, map[string]string{FuncASpot: `<html>`})

	_, err := client.GetASpotSymbols(context.Background())
	var upErr *models.UpstreamError
	assert.True(t, errors.As(err, &upErr))
}

func TestCall_RateLimiterHonoursCancelledContext(t *testing.T) {
	_, client := newFakeAKTools(t, map[string]string{FuncFXSpot: `[]`})
	client.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, client.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetFXSpotQuotes(ctx)
	var upErr *models.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, 0, upErr.StatusCode)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetASpotSymbols(t *testing.T) {
	body := `[
		{"序号":1,"代码":"600519","名称":"贵州茅台","最新价":1700.5},
		{"序号":2,"代码":"000001","名称":"平安银行","最新价":11.2},
		{"序号":3,"代码":"","名称":"空","最新价":null}
	]`
	_, client := newFakeAKTools(t, map[string]string{FuncASpot: body})

	entries, err := client.GetASpotSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.SymbolEntry{
		{Code: "600519", Name: "贵州茅台"},
		{Code: "000001", Name: "平安银行"},
	}, entries)
}

func TestGetHKSpotSymbols_MissingColumnsIsSchemaError(t *testing.T) {
	_, client := newFakeAKTools(t, map[string]string{FuncHKSpot: `[{"symbol":"00700","name":"腾讯控股"}]`})

	_, err := client.GetHKSpotSymbols(context.Background())
	var schemaErr *models.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"symbol", "name"}, schemaErr.Columns)
}

func TestGetHKMainBoardSymbols_EmptyIsNoData(t *testing.T) {
	_, client := newFakeAKTools(t, map[string]string{FuncHKMainBoardSpot: `[]`})

	_, err := client.GetHKMainBoardSymbols(context.Background())
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestGetAIndividualInfo(t *testing.T) {
	body := `[
		{"item":"最新","value":1688.88},
		{"item":"股票代码","value":"600519"},
		{"item":"股票简称","value":"贵州茅台"},
		{"item":"总股本","value":1256197800.0}
	]`
	f, client := newFakeAKTools(t, map[string]string{FuncAIndividualInfo: body})

	sec, err := client.GetAIndividualInfo(context.Background(), "600519")
	require.NoError(t, err)
	assert.Equal(t, "600519", f.query(FuncAIndividualInfo).Get("symbol"))
	assert.Equal(t, "600519", sec.Symbol)
	assert.Equal(t, "贵州茅台", sec.Name)
	require.NotNil(t, sec.CurrentPrice)
	assert.Equal(t, 1688.88, *sec.CurrentPrice)
}

func TestGetAIndividualInfo_NonNumericPriceIsAbsent(t *testing.T) {
	body := `[{"item":"最新","value":"-"},{"item":"股票代码","value":"600519"},{"item":"股票简称","value":"贵州茅台"}]`
	_, client := newFakeAKTools(t, map[string]string{FuncAIndividualInfo: body})

	sec, err := client.GetAIndividualInfo(context.Background(), "600519")
	require.NoError(t, err)
	assert.Nil(t, sec.CurrentPrice)
}

func TestGetAIndividualInfo_MissingNameIsSchemaError(t *testing.T) {
	body := `[{"item":"最新","value":1.0},{"item":"股票代码","value":"999999"}]`
	_, client := newFakeAKTools(t, map[string]string{FuncAIndividualInfo: body})

	_, err := client.GetAIndividualInfo(context.Background(), "999999")
	var schemaErr *models.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestGetHKSecurityName(t *testing.T) {
	body := `[{"证券代码":"00700","证券简称":"腾讯控股","上市日期":"2004-06-16"}]`
	_, client := newFakeAKTools(t, map[string]string{FuncHKSecurityProfile: body})

	name, err := client.GetHKSecurityName(context.Background(), "00700")
	require.NoError(t, err)
	assert.Equal(t, "腾讯控股", name)
}

func TestGetHKSecurityName_PositionalFallback(t *testing.T) {
	body := `[{"code":"00700","short":"腾讯控股"}]`
	_, client := newFakeAKTools(t, map[string]string{FuncHKSecurityProfile: body})

	name, err := client.GetHKSecurityName(context.Background(), "00700")
	require.NoError(t, err)
	assert.Equal(t, "腾讯控股", name)
}

func TestGetHKDailyClose_UsesLastRow(t *testing.T) {
	body := `[
		{"date":"2025-03-13","open":370.0,"high":380.0,"low":365.0,"close":372.4,"volume":1},
		{"date":"2025-03-14","open":372.0,"high":390.0,"low":371.0,"close":388.2,"volume":1}
	]`
	f, client := newFakeAKTools(t, map[string]string{FuncHKDaily: body})

	price, err := client.GetHKDailyClose(context.Background(), "00700")
	require.NoError(t, err)
	assert.Equal(t, 388.2, price)

	q := f.query(FuncHKDaily)
	assert.Equal(t, "00700", q.Get("symbol"))
	assert.True(t, q.Has("adjust"))
	assert.Equal(t, "", q.Get("adjust"))
}

func TestGetHKHistClose_WindowAndColumn(t *testing.T) {
	body := `[
		{"日期":"2025-03-13","开盘":370.0,"收盘":371.0,"最高":380.0},
		{"日期":"2025-03-14","开盘":372.0,"收盘":386.6,"最高":390.0}
	]`
	f, client := newFakeAKTools(t, map[string]string{FuncHKHist: body})

	price, err := client.GetHKHistClose(context.Background(), "00700")
	require.NoError(t, err)
	assert.Equal(t, 386.6, price)

	q := f.query(FuncHKHist)
	assert.Equal(t, "daily", q.Get("period"))
	assert.Equal(t, "20250305", q.Get("start_date"))
	assert.Equal(t, "20250315", q.Get("end_date"))
}

func TestGetADividendHistory(t *testing.T) {
	body := `[
		{"实施方案公告日期":"2024-06-10","分红类型":"年度分红","送股比例":null,"转增比例":null,"派息比例":308.76,"股权登记日":"2024-06-18","除权日":"2024-06-19","派息日":"2024-06-19"},
		{"实施方案公告日期":"2023-12-14","分红类型":"中期分红","送股比例":null,"转增比例":null,"派息比例":"-","股权登记日":"2023-12-19","除权日":"2023-12-20","派息日":null}
	]`
	_, client := newFakeAKTools(t, map[string]string{FuncADividend: body})

	rows, err := client.GetADividendHistory(context.Background(), "600519")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local), rows[0].AnnouncedAt)
	assert.True(t, rows[0].HasPerTen)
	assert.Equal(t, 308.76, rows[0].PerTen)
	assert.Equal(t, time.Date(2024, 6, 19, 0, 0, 0, 0, time.Local), rows[0].PaidAt)

	assert.False(t, rows[1].HasPerTen)
	assert.True(t, rows[1].PaidAt.IsZero())
}

func TestGetADividendHistory_EpochMillisDates(t *testing.T) {
	// 2024-06-11T00:00:00Z and 2024-06-19T00:00:00Z
	body := `[{"a":1718064000000,"b":null,"c":null,"d":null,"e":10,"f":null,"g":null,"h":1718755200000}]`
	_, client := newFakeAKTools(t, map[string]string{FuncADividend: body})

	rows, err := client.GetADividendHistory(context.Background(), "600519")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-06-11", rows[0].AnnouncedAt.Format(models.DateLayout))
	assert.Equal(t, "2024-06-19", rows[0].PaidAt.Format(models.DateLayout))
}

func TestGetADividendHistory_ShapeErrors(t *testing.T) {
	_, client := newFakeAKTools(t, map[string]string{FuncADividend: `[{"a":1,"b":2,"c":3}]`})
	_, err := client.GetADividendHistory(context.Background(), "600519")
	var schemaErr *models.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"a", "b", "c"}, schemaErr.Columns)

	_, client = newFakeAKTools(t, map[string]string{FuncADividend: `[]`})
	_, err = client.GetADividendHistory(context.Background(), "600519")
	assert.ErrorIs(t, err, models.ErrNoData)
}

func TestGetHKDividendHistory(t *testing.T) {
	body := `[
		{"最新公告日期":"2025-03-19","财政年度":"2024","分红方案":"每股派息1.013元(相当于港币1.118595元)","分配类型":"年度分配","除净日":"2025-06-20","截至过户日":"2025-06-26","发放日":"2025-07-10"},
		{"最新公告日期":"2024-08-20","财政年度":"2024","分红方案":"不分配","分配类型":"中期分配","除净日":null,"截至过户日":null,"发放日":null}
	]`
	f, client := newFakeAKTools(t, map[string]string{FuncHKDividend: body})

	rows, err := client.GetHKDividendHistory(context.Background(), "03968")
	require.NoError(t, err)
	assert.Equal(t, "03968", f.query(FuncHKDividend).Get("symbol"))
	require.Len(t, rows, 2)
	assert.Equal(t, "每股派息1.013元(相当于港币1.118595元)", rows[0].Plan)
	assert.Equal(t, "2025-06-20", rows[0].ExDate.Format(models.DateLayout))
	assert.True(t, rows[1].ExDate.IsZero())
}

func TestGetBOCRates_Params(t *testing.T) {
	body := `[{"日期":"2025-03-14","中行汇买价":91.9,"中行钞买价":91.2,"央行中间价":92.07}]`
	f, client := newFakeAKTools(t, map[string]string{FuncBOCRate: body})

	table, err := client.GetBOCRates(context.Background(), "港币")
	require.NoError(t, err)
	assert.Equal(t, 3, table.ColumnContaining("中间价"))

	q := f.query(FuncBOCRate)
	assert.Equal(t, "港币", q.Get("symbol"))
	assert.Equal(t, "20250213", q.Get("start_date"))
	assert.Equal(t, "20250315", q.Get("end_date"))
}
