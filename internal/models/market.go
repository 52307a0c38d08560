// Package models defines data structures for YieldMapper
package models

import (
	"fmt"
	"strings"
)

// Market identifies which exchange a query targets.
type Market string

const (
	MarketA  Market = "A"  // Shanghai / Shenzhen A-shares
	MarketHK Market = "HK" // Hong Kong main board and GEM
)

// HKCodeWidth is the fixed width of a Hong Kong stock code.
const HKCodeWidth = 5

// ParseMarket normalizes a market string. Empty input defaults to MarketA.
func ParseMarket(s string) (Market, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "A":
		return MarketA, nil
	case "HK":
		return MarketHK, nil
	default:
		return "", fmt.Errorf("unknown market '%s' (supported: A, HK)", s)
	}
}

// Currency returns the currency dividends on this market are quoted in.
func (m Market) Currency() string {
	if m == MarketHK {
		return "HKD"
	}
	return "CNY"
}

// PadHKCode left-pads a Hong Kong code with zeros to HKCodeWidth.
// Longer codes are returned unchanged.
func PadHKCode(code string) string {
	if len(code) >= HKCodeWidth {
		return code
	}
	return strings.Repeat("0", HKCodeWidth-len(code)) + code
}

// IsDigits reports whether s is non-empty and consists only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SymbolEntry is one row of a market's cached symbol universe.
type SymbolEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CanonicalSecurity is the resolved, displayable identity of a ticker.
type CanonicalSecurity struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	CurrentPrice *float64 `json:"current_price"`
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
