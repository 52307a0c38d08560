package dividend

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// HK distribution plans read like "每股派息1.013元(相当于港币1.118595元)".
// The HKD equivalent wins; the raw payout is used when no HKD figure is given.
var hkdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`港[币幣]([\d.]+)`),
	regexp.MustCompile(`派息([\d.]+)`),
}

// ParseHKDAmount extracts the per-share HKD amount from a distribution plan.
// Unparseable or missing amounts yield zero.
func ParseHKDAmount(plan string) decimal.Decimal {
	for _, re := range hkdPatterns {
		m := re.FindStringSubmatch(plan)
		if m == nil {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimRight(m[1], "."))
		if err != nil {
			continue
		}
		return amount
	}
	return decimal.Zero
}
