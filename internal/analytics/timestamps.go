package analytics

import "time"

// SaleTimestamp selects the proper timestamp for revenue metrics.
// The completion time wins over the envelope's occurred_at when present.
func SaleTimestamp(completedAt time.Time, fallback time.Time) time.Time {
	if !completedAt.IsZero() {
		return completedAt.UTC()
	}
	return fallback.UTC()
}
