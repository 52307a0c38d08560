package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData is returned by upstream adapters when a call succeeded but the
// table was empty.
var ErrNoData = errors.New("no data")

// UpstreamError reports a failed call to an upstream data function:
// transport failure, non-200 status or an undecodable body.
type UpstreamError struct {
	Function   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: %s (status: %d)", e.Function, e.Message, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %s: %v", e.Function, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s: %s", e.Function, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// SchemaError reports an upstream table that lacks the rows or columns an
// adapter depends on.
type SchemaError struct {
	Function string
	Reason   string
	Columns  []string
}

func (e *SchemaError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("unexpected %s schema: %s (columns: %v)", e.Function, e.Reason, e.Columns)
	}
	return fmt.Sprintf("unexpected %s schema: %s", e.Function, e.Reason)
}

// ADividendRow is one row of an A-share dividend history. PerTen is the
// cash distribution per 10 shares.
type ADividendRow struct {
	AnnouncedAt time.Time
	PerTen      float64
	HasPerTen   bool
	PaidAt      time.Time
}

// HKDividendRow is one row of an HK payout history. Plan is the free-text
// distribution plan the per-share amount is parsed from.
type HKDividendRow struct {
	AnnouncedAt time.Time
	Plan        string
	ExDate      time.Time
}
