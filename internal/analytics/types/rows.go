package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// SaleFactRow mirrors the sale_facts BigQuery schema. One row per completed
// sale, with the line items embedded as JSON for per-product rollups.
type SaleFactRow struct {
	EventID     string             `bigquery:"event_id"`
	SaleID      string             `bigquery:"sale_id"`
	StaffUserID string             `bigquery:"staff_user_id"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	TotalCents  int64              `bigquery:"total_cents"`
	ItemCount   int64              `bigquery:"item_count"`
	UnitsSold   int64              `bigquery:"units_sold"`
	Items       cbigquery.NullJSON `bigquery:"items"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
}
