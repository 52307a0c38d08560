package models

// QueryResult is the per-query response assembled by the search service.
// Errors collects non-fatal sub-failures; the result is returned regardless.
type QueryResult struct {
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Market           Market   `json:"market"`
	CurrentPrice     *float64 `json:"current_price"`
	Dividend         *float64 `json:"dividend"`
	DividendDates    []string `json:"dividend_dates"`
	DividendCurrency string   `json:"dividend_currency"`
	HKDRate          *float64 `json:"hkd_rate"`
	Errors           []string `json:"errors"`
}

// NewQueryResult builds the result shell for a query before any lookups run.
func NewQueryResult(query string, market Market) *QueryResult {
	return &QueryResult{
		Symbol:           query,
		Market:           market,
		DividendDates:    []string{},
		DividendCurrency: market.Currency(),
		Errors:           []string{},
	}
}

// ApplySecurity copies resolved identity fields onto the result.
func (r *QueryResult) ApplySecurity(sec *CanonicalSecurity) {
	r.Symbol = sec.Symbol
	r.Name = sec.Name
	r.CurrentPrice = sec.CurrentPrice
}

// ApplyDividend merges a dividend summary. Dates are kept even on failure.
// It returns false when the summary carried an error instead of an amount.
func (r *QueryResult) ApplyDividend(d DividendSummary) bool {
	if d.RecentDates != nil {
		r.DividendDates = d.RecentDates
	}
	if d.Amount != nil {
		r.Dividend = d.Amount
		return true
	}
	return false
}

// AddError appends a non-fatal error message.
func (r *QueryResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// RateResponse is the body of the exchange-rate endpoint.
type RateResponse struct {
	Rate float64 `json:"rate"`
}
