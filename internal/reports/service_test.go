package reports

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	"github.com/inventiapp/stocktrack-backend/internal/notifications"
	product "github.com/inventiapp/stocktrack-backend/internal/products"
	"github.com/inventiapp/stocktrack-backend/internal/sales"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
)

type reportsFixture struct {
	conn *gorm.DB
	svc  Service
}

func newReportsFixture(t *testing.T) *reportsFixture {
	t.Helper()
	dsn := "file:reports_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Category{},
		&models.Provider{},
		&models.Product{},
		&models.Batch{},
		&models.Sale{},
		&models.SaleLineItem{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(
		sales.NewRepository(conn),
		product.NewRepository(conn),
		inventory.NewRepository(conn),
		notifications.NewRepository(conn),
	)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &reportsFixture{conn: conn, svc: svc}
}

func (f *reportsFixture) addProduct(t *testing.T, name string, minStock int, active bool) models.Product {
	t.Helper()
	category := models.Category{ID: uuid.New(), Name: "cat-" + uuid.NewString()}
	if err := f.conn.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	provider := models.Provider{
		ID:        uuid.New(),
		FirstName: "Pia",
		LastName:  "Torres",
		Email:     uuid.NewString() + "@example.com",
		Phone:     "+51999888777",
		RUC:       "2048" + uuid.NewString()[:7],
		IsActive:  true,
	}
	if err := f.conn.Create(&provider).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	row := models.Product{
		ID:         uuid.New(),
		Name:       name,
		CategoryID: category.ID,
		ProviderID: provider.ID,
		MinStock:   minStock,
		UnitPrice:  decimal.NewFromFloat(4.50),
		IsActive:   active,
	}
	if err := f.conn.Create(&row).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return row
}

func (f *reportsFixture) addBatch(t *testing.T, productID uuid.UUID, qty int, expires time.Time) models.Batch {
	t.Helper()
	batch := models.Batch{
		ID:             uuid.New(),
		ProductID:      productID,
		Quantity:       qty,
		ExpirationDate: expires,
		ReceptionDate:  expires.AddDate(0, -2, 0),
	}
	if err := f.conn.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

func (f *reportsFixture) addSale(t *testing.T, createdAt time.Time, total float64, lines ...models.SaleLineItem) models.Sale {
	t.Helper()
	sale := models.Sale{
		ID:          uuid.New(),
		StaffUserID: uuid.New(),
		TotalAmount: decimal.NewFromFloat(total),
		Status:      enums.SaleStatusCompleted,
		CreatedAt:   createdAt,
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].SaleID = sale.ID
	}
	sale.LineItems = lines
	if err := f.conn.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

func line(productID uuid.UUID, qty int, unit, total float64) models.SaleLineItem {
	return models.SaleLineItem{
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  decimal.NewFromFloat(unit),
		TotalPrice: decimal.NewFromFloat(total),
	}
}

func TestStatsCountsCurrentMonth(t *testing.T) {
	t.Parallel()

	f := newReportsFixture(t)
	ctx := context.Background()
	now := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)

	active := f.addProduct(t, "rice", 5, true)
	f.addProduct(t, "retired", 0, false)
	f.addBatch(t, active.ID, 2, now.AddDate(0, 1, 0))

	f.addSale(t, now.AddDate(0, 0, -1), 30)
	f.addSale(t, now.AddDate(0, 0, -2), 20)
	f.addSale(t, now.AddDate(0, -1, 0), 99)

	stats, err := f.svc.Stats(ctx, now)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.ActiveProducts != 1 {
		t.Fatalf("expected 1 active product, got %d", stats.ActiveProducts)
	}
	if stats.MonthlySalesCount != 2 {
		t.Fatalf("expected 2 sales this month, got %d", stats.MonthlySalesCount)
	}
	if !stats.MonthlyIncome.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected income 50, got %s", stats.MonthlyIncome)
	}
	if stats.ProductsWithAlerts != 1 {
		t.Fatalf("expected 1 low stock product, got %d", stats.ProductsWithAlerts)
	}
}

func TestMonthlyIncomeBucketsByMonth(t *testing.T) {
	t.Parallel()

	f := newReportsFixture(t)
	ctx := context.Background()

	f.addSale(t, time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC), 10)
	f.addSale(t, time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC), 15)
	f.addSale(t, time.Date(2026, time.November, 1, 9, 0, 0, 0, time.UTC), 40)
	f.addSale(t, time.Date(2025, time.December, 31, 9, 0, 0, 0, time.UTC), 77)

	points, err := f.svc.MonthlyIncome(ctx, 2026)
	if err != nil {
		t.Fatalf("monthly income: %v", err)
	}
	if len(points) != 12 {
		t.Fatalf("expected 12 points, got %d", len(points))
	}
	if !points[time.March-1].Income.Equal(decimal.NewFromInt(25)) || points[time.March-1].SalesCount != 2 {
		t.Fatalf("unexpected march point %+v", points[time.March-1])
	}
	if !points[time.November-1].Income.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected november point %+v", points[time.November-1])
	}
	if !points[time.January-1].Income.IsZero() {
		t.Fatalf("expected empty january, got %+v", points[time.January-1])
	}

	if _, err := f.svc.MonthlyIncome(ctx, 99); err == nil {
		t.Fatal("expected validation error for absurd year")
	}
}

func TestProductRankingOrdersByRevenue(t *testing.T) {
	t.Parallel()

	f := newReportsFixture(t)
	ctx := context.Background()
	base := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	rice := f.addProduct(t, "rice", 0, true)
	beans := f.addProduct(t, "beans", 0, true)

	f.addSale(t, base.AddDate(0, 0, 1), 30,
		line(rice.ID, 2, 5, 10),
		line(beans.ID, 4, 5, 20),
	)
	f.addSale(t, base.AddDate(0, 0, 2), 15,
		line(rice.ID, 3, 5, 15),
	)

	ranking, err := f.svc.ProductRanking(ctx, base, base.AddDate(0, 1, 0), 10)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(ranking) != 2 {
		t.Fatalf("expected 2 products, got %d", len(ranking))
	}
	if ranking[0].ProductID != rice.ID || ranking[0].UnitsSold != 5 || !ranking[0].Revenue.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected leader %+v", ranking[0])
	}
	if ranking[0].ProductName != "rice" || ranking[1].ProductName != "beans" {
		t.Fatal("expected resolved product names")
	}

	top1, err := f.svc.ProductRanking(ctx, base, base.AddDate(0, 1, 0), 1)
	if err != nil {
		t.Fatalf("ranking limit: %v", err)
	}
	if len(top1) != 1 {
		t.Fatalf("expected a single entry, got %d", len(top1))
	}

	if _, err := f.svc.ProductRanking(ctx, base, base, 10); err == nil {
		t.Fatal("expected validation error for empty window")
	}
}

func TestAlertsCollectsStockAndExpiryWarnings(t *testing.T) {
	t.Parallel()

	f := newReportsFixture(t)
	ctx := context.Background()
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

	low := f.addProduct(t, "milk", 10, true)
	healthy := f.addProduct(t, "sugar", 1, true)
	f.addBatch(t, low.ID, 3, now.AddDate(0, 2, 0))
	f.addBatch(t, healthy.ID, 50, now.AddDate(0, 2, 0))

	expired := f.addBatch(t, healthy.ID, 4, now.AddDate(0, 0, -1))
	soon := f.addBatch(t, healthy.ID, 6, now.AddDate(0, 0, 3))

	alerts, err := f.svc.Alerts(ctx, now)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if len(alerts.LowStock) != 1 || alerts.LowStock[0].ProductID != low.ID {
		t.Fatalf("unexpected low stock alerts %+v", alerts.LowStock)
	}
	if alerts.LowStock[0].CurrentStock != 3 || alerts.LowStock[0].MinStock != 10 {
		t.Fatalf("unexpected low stock numbers %+v", alerts.LowStock[0])
	}
	if len(alerts.ExpiredBatches) != 1 || alerts.ExpiredBatches[0].BatchID != expired.ID {
		t.Fatalf("unexpected expired alerts %+v", alerts.ExpiredBatches)
	}
	if len(alerts.ExpiringSoon) != 1 || alerts.ExpiringSoon[0].BatchID != soon.ID {
		t.Fatalf("unexpected expiring alerts %+v", alerts.ExpiringSoon)
	}
}

func TestDashboardAssemblesAllSections(t *testing.T) {
	t.Parallel()

	f := newReportsFixture(t)
	ctx := context.Background()
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

	rice := f.addProduct(t, "rice", 0, true)
	f.addBatch(t, rice.ID, 20, now.AddDate(0, 3, 0))
	f.addSale(t, now.AddDate(0, 0, -3), 25, line(rice.ID, 5, 5, 25))

	view, err := f.svc.Dashboard(ctx, now)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Stats.MonthlySalesCount != 1 {
		t.Fatalf("unexpected stats %+v", view.Stats)
	}
	if len(view.MonthlyIncome) != 12 {
		t.Fatalf("expected 12 income points, got %d", len(view.MonthlyIncome))
	}
	if len(view.TopProducts) != 1 || view.TopProducts[0].ProductID != rice.ID {
		t.Fatalf("unexpected ranking %+v", view.TopProducts)
	}
}
