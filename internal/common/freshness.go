package common

import "time"

// Freshness TTLs for data components
const (
	FreshnessSymbolUniverse = 24 * time.Hour
	TrailingWindow          = 365 * 24 * time.Hour
)

// IsFreshAt returns true if updated is within ttl of now.
// A zero timestamp is never fresh.
func IsFreshAt(now, updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
