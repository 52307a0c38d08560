package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for dividend dates.
const DateLayout = "2006-01-02"

// DividendRecord is one distribution row derived from an upstream
// corporate-actions history. Zero times mean the source date was missing or
// unparsable. PerShare is never negative; rows without a positive cash
// amount carry zero and IsCash false.
type DividendRecord struct {
	AnnouncedAt time.Time
	PaymentDate time.Time // payment date (A) or ex-dividend date (HK)
	PerShare    decimal.Decimal
	IsCash      bool
}

// DividendSummary is the outcome of a dividend aggregation.
// Amount is nil when no positive trailing figure could be derived, in which
// case Err explains why. RecentDates may be populated either way.
type DividendSummary struct {
	Amount      *float64
	RecentDates []string
	Err         string
}

// OK reports whether an amount was derived.
func (d DividendSummary) OK() bool {
	return d.Amount != nil
}
