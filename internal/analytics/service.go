package analytics

import (
	"context"
	"fmt"

	"github.com/inventiapp/stocktrack-backend/internal/analytics/query"
	"github.com/inventiapp/stocktrack-backend/internal/analytics/types"
	"github.com/inventiapp/stocktrack-backend/pkg/bigquery"
)

// Service provides revenue reports based on sale facts.
type Service interface {
	// Query returns revenue KPIs for the provided window.
	Query(ctx context.Context, req types.RevenueQueryRequest) (*types.RevenueQueryResponse, error)
}

type service struct {
	revenue query.RevenueService
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client *bigquery.Client, project, dataset, table string) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}

	revenue, err := query.NewRevenueService(client, project, dataset, table)
	if err != nil {
		return nil, err
	}

	return &service{revenue: revenue}, nil
}

func (s *service) Query(ctx context.Context, req types.RevenueQueryRequest) (*types.RevenueQueryResponse, error) {
	return s.revenue.Query(ctx, req)
}
