package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

// expiringSoonWindow is how far ahead the dashboard warns about batches.
const expiringSoonWindow = 7 * 24 * time.Hour

const defaultRankingLimit = 10

type salesReader interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Sale, error)
}

type productReader interface {
	Count(ctx context.Context, activeOnly bool) (int64, error)
	ListBelowMinStock(ctx context.Context) ([]models.Product, error)
	NamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type batchReader interface {
	ListExpired(ctx context.Context, asOf time.Time) ([]models.Batch, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Batch, error)
	SumByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type notificationCounter interface {
	CountUnread(ctx context.Context) (int64, error)
}

// Service aggregates sales, products, and batches into dashboard views.
type Service interface {
	Stats(ctx context.Context, now time.Time) (*DashboardStats, error)
	MonthlyIncome(ctx context.Context, year int) ([]MonthlyIncomePoint, error)
	ProductRanking(ctx context.Context, from, to time.Time, limit int) ([]ProductSalesTotal, error)
	Alerts(ctx context.Context, now time.Time) (*AlertsSummary, error)
	Dashboard(ctx context.Context, now time.Time) (*DashboardView, error)
}

type service struct {
	sales         salesReader
	products      productReader
	batches       batchReader
	notifications notificationCounter
}

// NewService constructs the dashboard reporting service.
func NewService(sales salesReader, products productReader, batches batchReader, notifications notificationCounter) (Service, error) {
	if sales == nil {
		return nil, fmt.Errorf("sales reader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if batches == nil {
		return nil, fmt.Errorf("batch reader required")
	}
	if notifications == nil {
		return nil, fmt.Errorf("notification counter required")
	}
	return &service{
		sales:         sales,
		products:      products,
		batches:       batches,
		notifications: notifications,
	}, nil
}

// Stats reports the headline numbers for the current month.
func (s *service) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	activeProducts, err := s.products.Count(ctx, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}

	monthSales, err := s.sales.ListBetween(ctx, monthStart, nextMonth)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load month sales")
	}
	income := decimal.Zero
	for i := range monthSales {
		income = income.Add(monthSales[i].TotalAmount)
	}

	belowMin, err := s.products.ListBelowMinStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load low stock products")
	}

	unread, err := s.notifications.CountUnread(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}

	return &DashboardStats{
		ActiveProducts:      activeProducts,
		MonthlyIncome:       income,
		MonthlySalesCount:   len(monthSales),
		ProductsWithAlerts:  len(belowMin),
		UnreadNotifications: unread,
	}, nil
}

// MonthlyIncome returns one entry per calendar month of the requested year,
// including months with no sales.
func (s *service) MonthlyIncome(ctx context.Context, year int) ([]MonthlyIncomePoint, error) {
	if year < 2000 || year > 2200 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year out of range")
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	yearSales, err := s.sales.ListBetween(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load year sales")
	}

	points := make([]MonthlyIncomePoint, 12)
	for i := range points {
		points[i] = MonthlyIncomePoint{Month: time.Month(i + 1), Income: decimal.Zero}
	}
	for i := range yearSales {
		month := yearSales[i].CreatedAt.UTC().Month()
		points[month-1].Income = points[month-1].Income.Add(yearSales[i].TotalAmount)
		points[month-1].SalesCount++
	}
	return points, nil
}

// ProductRanking aggregates sale line items inside the window into per-product
// totals ordered by revenue.
func (s *service) ProductRanking(ctx context.Context, from, to time.Time, limit int) ([]ProductSalesTotal, error) {
	if !from.Before(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	if limit <= 0 {
		limit = defaultRankingLimit
	}

	windowSales, err := s.sales.ListBetween(ctx, from, to)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales")
	}

	totals := map[uuid.UUID]*ProductSalesTotal{}
	for i := range windowSales {
		for _, line := range windowSales[i].LineItems {
			entry, ok := totals[line.ProductID]
			if !ok {
				entry = &ProductSalesTotal{ProductID: line.ProductID, Revenue: decimal.Zero}
				totals[line.ProductID] = entry
			}
			entry.UnitsSold += line.Quantity
			entry.Revenue = entry.Revenue.Add(line.TotalPrice)
		}
	}

	ids := make([]uuid.UUID, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	names, err := s.products.NamesByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve product names")
	}

	ranking := make([]ProductSalesTotal, 0, len(totals))
	for id, entry := range totals {
		entry.ProductName = names[id]
		ranking = append(ranking, *entry)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].Revenue.Equal(ranking[j].Revenue) {
			return ranking[i].Revenue.GreaterThan(ranking[j].Revenue)
		}
		return ranking[i].ProductID.String() < ranking[j].ProductID.String()
	})
	if len(ranking) > limit {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// Alerts lists products under their minimum and batches past or near expiry.
func (s *service) Alerts(ctx context.Context, now time.Time) (*AlertsSummary, error) {
	belowMin, err := s.products.ListBelowMinStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load low stock products")
	}
	lowStock := make([]LowStockAlert, 0, len(belowMin))
	for i := range belowMin {
		onHand, err := s.batches.SumByProduct(ctx, belowMin[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum product stock")
		}
		lowStock = append(lowStock, LowStockAlert{
			ProductID:    belowMin[i].ID,
			ProductName:  belowMin[i].Name,
			CurrentStock: onHand,
			MinStock:     belowMin[i].MinStock,
		})
	}

	expired, err := s.batches.ListExpired(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expired batches")
	}
	expiring, err := s.batches.ListExpiringBetween(ctx, now, now.Add(expiringSoonWindow))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expiring batches")
	}

	return &AlertsSummary{
		LowStock:       lowStock,
		ExpiredBatches: toBatchAlerts(expired),
		ExpiringSoon:   toBatchAlerts(expiring),
	}, nil
}

// Dashboard assembles the full view the frontend renders on its home screen.
func (s *service) Dashboard(ctx context.Context, now time.Time) (*DashboardView, error) {
	stats, err := s.Stats(ctx, now)
	if err != nil {
		return nil, err
	}
	income, err := s.MonthlyIncome(ctx, now.Year())
	if err != nil {
		return nil, err
	}
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	ranking, err := s.ProductRanking(ctx, yearStart, yearStart.AddDate(1, 0, 0), defaultRankingLimit)
	if err != nil {
		return nil, err
	}
	alerts, err := s.Alerts(ctx, now)
	if err != nil {
		return nil, err
	}
	return &DashboardView{
		Stats:         *stats,
		MonthlyIncome: income,
		TopProducts:   ranking,
		Alerts:        *alerts,
	}, nil
}

func toBatchAlerts(batches []models.Batch) []BatchAlert {
	alerts := make([]BatchAlert, 0, len(batches))
	for i := range batches {
		alerts = append(alerts, BatchAlert{
			BatchID:        batches[i].ID,
			ProductID:      batches[i].ProductID,
			Quantity:       batches[i].Quantity,
			ExpirationDate: batches[i].ExpirationDate,
		})
	}
	return alerts
}
