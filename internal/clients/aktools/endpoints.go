package aktools

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/fanwj03/YieldMapper/internal/interfaces"
	"github.com/fanwj03/YieldMapper/internal/models"
)

// Upstream data functions.
const (
	FuncASpot             = "stock_zh_a_spot_em"
	FuncAIndividualInfo   = "stock_individual_info_em"
	FuncHKSpot            = "stock_hk_spot_em"
	FuncHKMainBoardSpot   = "stock_hk_main_board_spot_em"
	FuncHKSecurityProfile = "stock_hk_security_profile_em"
	FuncHKDaily           = "stock_hk_daily"
	FuncHKHist            = "stock_hk_hist"
	FuncADividend         = "stock_dividend_cninfo"
	FuncHKDividend        = "stock_hk_dividend_payout_em"
	FuncFXSpot            = "fx_spot_quote"
	FuncBOCRate           = "currency_boc_sina"
)

const (
	colCode = "代码"
	colName = "名称"
	// stock_individual_info_em is an item/value listing.
	itemPrice = "最新"
	itemName  = "股票简称"
	// stock_hk_security_profile_em
	colSecurityName = "证券简称"
	// stock_hk_daily
	colClose = "close"

	histDateLayout = "20060102"
	histLookback   = 10 * 24 * time.Hour
	bocLookback    = 30 * 24 * time.Hour
)

// Positional layouts of the dividend histories.
const (
	aDivMinColumns   = 5
	aDivAnnounceCol  = 0
	aDivPerTenCol    = 4
	aDivPaymentCol   = 7
	hkDivMinColumns  = 3
	hkDivAnnounceCol = 0
	hkDivPlanCol     = 2
	hkDivExDateCol   = 4
	hkHistMinColumns = 3
	hkHistCloseCol   = 2
	hkProfileNameCol = 1
)

var _ interfaces.MarketDataClient = (*Client)(nil)

// GetASpotSymbols returns the A-share listing in snapshot order.
func (c *Client) GetASpotSymbols(ctx context.Context) ([]models.SymbolEntry, error) {
	return c.spotSymbols(ctx, FuncASpot)
}

// GetHKSpotSymbols returns the full HK listing.
func (c *Client) GetHKSpotSymbols(ctx context.Context) ([]models.SymbolEntry, error) {
	return c.spotSymbols(ctx, FuncHKSpot)
}

// GetHKMainBoardSymbols returns the HK main-board listing.
func (c *Client) GetHKMainBoardSymbols(ctx context.Context) ([]models.SymbolEntry, error) {
	return c.spotSymbols(ctx, FuncHKMainBoardSpot)
}

// spotSymbols projects a spot-quote snapshot to (code, name) pairs.
func (c *Client) spotSymbols(ctx context.Context, function string) ([]models.SymbolEntry, error) {
	t, err := c.call(ctx, function, nil)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, models.ErrNoData
	}

	codeCol, nameCol := t.ColumnIndex(colCode), t.ColumnIndex(colName)
	if codeCol < 0 || nameCol < 0 {
		return nil, &models.SchemaError{Function: function, Reason: "missing code/name columns", Columns: t.Columns}
	}

	entries := make([]models.SymbolEntry, 0, t.Len())
	for i := range t.Rows {
		code := strings.TrimSpace(models.CellString(t.Value(i, codeCol)))
		if code == "" {
			continue
		}
		entries = append(entries, models.SymbolEntry{
			Code: code,
			Name: strings.TrimSpace(models.CellString(t.Value(i, nameCol))),
		})
	}
	return entries, nil
}

// GetAIndividualInfo returns the display name and latest price of an A-share.
// The price is nil when the upstream value is not numeric.
func (c *Client) GetAIndividualInfo(ctx context.Context, code string) (*models.CanonicalSecurity, error) {
	t, err := c.call(ctx, FuncAIndividualInfo, url.Values{"symbol": {code}})
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, models.ErrNoData
	}
	if len(t.Columns) < 2 {
		return nil, &models.SchemaError{Function: FuncAIndividualInfo, Reason: "expected item/value columns", Columns: t.Columns}
	}

	sec := &models.CanonicalSecurity{Symbol: code}
	foundName := false
	for i := range t.Rows {
		item := models.CellString(t.Value(i, 0))
		value := t.Value(i, 1)
		switch {
		case item == itemName:
			sec.Name = strings.TrimSpace(models.CellString(value))
			foundName = true
		case strings.HasPrefix(item, itemPrice):
			if f, ok := models.CellFloat(value); ok {
				sec.CurrentPrice = models.Float64Ptr(f)
			}
		}
	}
	if !foundName {
		return nil, &models.SchemaError{Function: FuncAIndividualInfo, Reason: "missing " + itemName + " item"}
	}
	return sec, nil
}

// GetHKSecurityName returns the short name from the HK security profile.
func (c *Client) GetHKSecurityName(ctx context.Context, code string) (string, error) {
	t, err := c.call(ctx, FuncHKSecurityProfile, url.Values{"symbol": {code}})
	if err != nil {
		return "", err
	}
	if t.Len() == 0 {
		return "", models.ErrNoData
	}

	col := t.ColumnIndex(colSecurityName)
	if col < 0 {
		if len(t.Columns) <= hkProfileNameCol {
			return "", &models.SchemaError{Function: FuncHKSecurityProfile, Reason: "missing name column", Columns: t.Columns}
		}
		col = hkProfileNameCol
	}
	name := strings.TrimSpace(models.CellString(t.Value(0, col)))
	if name == "" {
		return "", models.ErrNoData
	}
	return name, nil
}

// GetHKDailyClose returns the last close from the unadjusted daily series.
func (c *Client) GetHKDailyClose(ctx context.Context, code string) (float64, error) {
	t, err := c.call(ctx, FuncHKDaily, url.Values{"symbol": {code}, "adjust": {""}})
	if err != nil {
		return 0, err
	}
	if t.Len() == 0 {
		return 0, models.ErrNoData
	}
	col := t.ColumnIndex(colClose)
	if col < 0 {
		return 0, &models.SchemaError{Function: FuncHKDaily, Reason: "missing close column", Columns: t.Columns}
	}
	f, ok := models.CellFloat(t.Value(t.Len()-1, col))
	if !ok {
		return 0, &models.SchemaError{Function: FuncHKDaily, Reason: "non-numeric close"}
	}
	return f, nil
}

// GetHKHistClose returns the last close from the historical series over a
// short window ending today.
func (c *Client) GetHKHistClose(ctx context.Context, code string) (float64, error) {
	end := c.now()
	params := url.Values{
		"symbol":     {code},
		"period":     {"daily"},
		"start_date": {end.Add(-histLookback).Format(histDateLayout)},
		"end_date":   {end.Format(histDateLayout)},
		"adjust":     {""},
	}
	t, err := c.call(ctx, FuncHKHist, params)
	if err != nil {
		return 0, err
	}
	if t.Len() == 0 {
		return 0, models.ErrNoData
	}
	if len(t.Columns) < hkHistMinColumns {
		return 0, &models.SchemaError{Function: FuncHKHist, Reason: "too few columns", Columns: t.Columns}
	}
	f, ok := models.CellFloat(t.Value(t.Len()-1, hkHistCloseCol))
	if !ok {
		return 0, &models.SchemaError{Function: FuncHKHist, Reason: "non-numeric close"}
	}
	return f, nil
}

// GetADividendHistory returns the cninfo dividend history in provider order.
func (c *Client) GetADividendHistory(ctx context.Context, code string) ([]models.ADividendRow, error) {
	t, err := c.call(ctx, FuncADividend, url.Values{"symbol": {code}})
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, models.ErrNoData
	}
	if len(t.Columns) < aDivMinColumns {
		return nil, &models.SchemaError{Function: FuncADividend, Reason: "too few columns", Columns: t.Columns}
	}

	rows := make([]models.ADividendRow, 0, t.Len())
	for i := range t.Rows {
		var row models.ADividendRow
		row.AnnouncedAt, _ = models.CellTime(t.Value(i, aDivAnnounceCol))
		row.PerTen, row.HasPerTen = models.CellFloat(t.Value(i, aDivPerTenCol))
		row.PaidAt, _ = models.CellTime(t.Value(i, aDivPaymentCol))
		rows = append(rows, row)
	}
	return rows, nil
}

// GetHKDividendHistory returns the HK payout history in provider order.
func (c *Client) GetHKDividendHistory(ctx context.Context, code string) ([]models.HKDividendRow, error) {
	t, err := c.call(ctx, FuncHKDividend, url.Values{"symbol": {code}})
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, models.ErrNoData
	}
	if len(t.Columns) < hkDivMinColumns {
		return nil, &models.SchemaError{Function: FuncHKDividend, Reason: "too few columns", Columns: t.Columns}
	}

	rows := make([]models.HKDividendRow, 0, t.Len())
	for i := range t.Rows {
		var row models.HKDividendRow
		row.AnnouncedAt, _ = models.CellTime(t.Value(i, hkDivAnnounceCol))
		row.Plan = models.CellString(t.Value(i, hkDivPlanCol))
		row.ExDate, _ = models.CellTime(t.Value(i, hkDivExDateCol))
		rows = append(rows, row)
	}
	return rows, nil
}

// GetFXSpotQuotes returns the raw interbank spot quote table.
func (c *Client) GetFXSpotQuotes(ctx context.Context) (*models.Table, error) {
	return c.call(ctx, FuncFXSpot, nil)
}

// GetBOCRates returns the Bank of China quote history for a currency
// over the last month.
func (c *Client) GetBOCRates(ctx context.Context, currency string) (*models.Table, error) {
	end := c.now()
	params := url.Values{
		"symbol":     {currency},
		"start_date": {end.Add(-bocLookback).Format(histDateLayout)},
		"end_date":   {end.Format(histDateLayout)},
	}
	return c.call(ctx, FuncBOCRate, params)
}
