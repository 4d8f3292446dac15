package types

import "time"

// RevenueQueryRequest bounds the reporting window.
type RevenueQueryRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TimeSeriesPoint is one day of an aggregated series.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue pairs a label with an aggregated value.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// RevenueQueryResponse carries the revenue KPIs computed from sale_facts.
type RevenueQueryResponse struct {
	RevenueSeries    []TimeSeriesPoint `json:"revenue_series"`
	SalesSeries      []TimeSeriesPoint `json:"sales_series"`
	TopProducts      []LabelValue      `json:"top_products"`
	AverageSaleCents float64           `json:"average_sale_cents"`
}
