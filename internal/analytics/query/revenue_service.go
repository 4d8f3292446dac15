package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/inventiapp/stocktrack-backend/internal/analytics/types"
	"github.com/inventiapp/stocktrack-backend/pkg/bigquery"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

const (
	revenueSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(total_cents) AS value
FROM %s
WHERE occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	salesSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(DISTINCT sale_id) AS value
FROM %s
WHERE occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topProductsSQL = `
SELECT label, SUM(value) AS value FROM (
  SELECT
    JSON_VALUE(item, '$.product_id') AS label,
    SAFE_CAST(JSON_VALUE(item, '$.line_total_cents') AS INT64) AS value
  FROM %s
  WHERE items IS NOT NULL
    AND occurred_at BETWEEN @start AND @end,
  UNNEST(JSON_EXTRACT_ARRAY(items)) AS item
)
WHERE label IS NOT NULL
GROUP BY label
ORDER BY value DESC
LIMIT 5
`

	averageSaleSQL = `
SELECT SAFE_DIVIDE(SUM(total_cents), NULLIF(COUNT(DISTINCT sale_id), 0)) AS value
FROM %s
WHERE occurred_at BETWEEN @start AND @end
`
)

// RevenueService provides revenue KPIs from the BigQuery sale_facts table.
type RevenueService interface {
	Query(ctx context.Context, req types.RevenueQueryRequest) (*types.RevenueQueryResponse, error)
}

type revenueService struct {
	client   *bigquery.Client
	tableRef string
}

// NewRevenueService builds a service backed by BigQuery.
func NewRevenueService(client *bigquery.Client, project, dataset, table string) (RevenueService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &revenueService{
		client:   client,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *revenueService) Query(ctx context.Context, req types.RevenueQueryRequest) (*types.RevenueQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := s.baseParams(req)

	revenue, err := s.querySeries(ctx, fmt.Sprintf(revenueSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	salesSeries, err := s.querySeries(ctx, fmt.Sprintf(salesSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	topProducts, err := s.queryTopLabels(ctx, fmt.Sprintf(topProductsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	average, err := s.queryAverage(ctx, fmt.Sprintf(averageSaleSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	return &types.RevenueQueryResponse{
		RevenueSeries:    revenue,
		SalesSeries:      salesSeries,
		TopProducts:      topProducts,
		AverageSaleCents: average,
	}, nil
}

func validateRequest(req types.RevenueQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *revenueService) baseParams(req types.RevenueQueryRequest) []cloudbigquery.QueryParameter {
	return []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}
}

func (s *revenueService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *revenueService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *revenueService) queryAverage(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query average sale: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading average sale row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}
