package analytics

import (
	"testing"
	"time"
)

func TestSaleTimestampPrefersCompletedAt(t *testing.T) {
	t.Parallel()

	completed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	fallback := time.Date(2026, 2, 1, 12, 5, 0, 0, time.UTC)

	if got := SaleTimestamp(completed, fallback); !got.Equal(completed) {
		t.Fatalf("expected completed timestamp, got %s", got)
	}
	if got := SaleTimestamp(time.Time{}, fallback); !got.Equal(fallback) {
		t.Fatalf("expected fallback timestamp, got %s", got)
	}
}
