package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Batch{}, &models.Product{}, &models.Category{}, &models.Provider{}, &models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func seedBatch(t *testing.T, conn *gorm.DB, productID uuid.UUID, qty int, expires time.Time) models.Batch {
	t.Helper()
	batch := models.Batch{
		ID:             uuid.New(),
		ProductID:      productID,
		Quantity:       qty,
		ExpirationDate: expires,
		ReceptionDate:  expires.AddDate(0, -1, 0),
	}
	if err := conn.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

func loadBatch(t *testing.T, conn *gorm.DB, id uuid.UUID) models.Batch {
	t.Helper()
	var batch models.Batch
	if err := conn.First(&batch, "id = ?", id).Error; err != nil {
		t.Fatalf("load batch: %v", err)
	}
	return batch
}

func TestDepleteSpansBatchesInExpiryOrder(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()

	early := seedBatch(t, conn, product, 5, date(2026, time.September, 10))
	late := seedBatch(t, conn, product, 10, date(2026, time.October, 1))

	var result *DepletionResult
	err := conn.Transaction(func(tx *gorm.DB) error {
		var terr error
		result, terr = Deplete(ctx, tx, product, 7)
		return terr
	})
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}

	if len(result.Deductions) != 2 {
		t.Fatalf("expected 2 deductions, got %d", len(result.Deductions))
	}
	if result.Deductions[0].BatchID != early.ID || result.Deductions[0].Taken != 5 {
		t.Fatalf("expected earliest batch drained first: %+v", result.Deductions[0])
	}
	if result.Deductions[1].BatchID != late.ID || result.Deductions[1].Taken != 2 {
		t.Fatalf("expected remainder from later batch: %+v", result.Deductions[1])
	}

	if got := loadBatch(t, conn, early.ID); got.Quantity != 0 {
		t.Fatalf("earliest batch should be empty, has %d", got.Quantity)
	}
	if got := loadBatch(t, conn, late.ID); got.Quantity != 8 {
		t.Fatalf("later batch should hold 8, has %d", got.Quantity)
	}
}

func TestDepleteInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()

	batch := seedBatch(t, conn, product, 3, date(2026, time.September, 10))

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, terr := Deplete(ctx, tx, product, 5)
		return terr
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["shortfall"] != 2 {
		t.Fatalf("expected shortfall 2, got %v", details["shortfall"])
	}

	if got := loadBatch(t, conn, batch.ID); got.Quantity != 3 {
		t.Fatalf("rollback should restore quantity 3, has %d", got.Quantity)
	}
}

func TestDepleteSkipsEmptyBatches(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()

	empty := seedBatch(t, conn, product, 0, date(2026, time.September, 1))
	stocked := seedBatch(t, conn, product, 6, date(2026, time.September, 20))

	var result *DepletionResult
	err := conn.Transaction(func(tx *gorm.DB) error {
		var terr error
		result, terr = Deplete(ctx, tx, product, 4)
		return terr
	})
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}

	if len(result.Deductions) != 1 || result.Deductions[0].BatchID != stocked.ID {
		t.Fatalf("expected only the stocked batch to be touched: %+v", result.Deductions)
	}
	if got := loadBatch(t, conn, empty.ID); got.Quantity != 0 {
		t.Fatalf("empty batch should remain at zero, has %d", got.Quantity)
	}
	if got := loadBatch(t, conn, stocked.ID); got.Quantity != 2 {
		t.Fatalf("stocked batch should hold 2, has %d", got.Quantity)
	}
}

func TestDepleteNoBatches(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()

	err := conn.Transaction(func(tx *gorm.DB) error {
		_, terr := Deplete(ctx, tx, uuid.New(), 4)
		return terr
	})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if details["shortfall"] != 4 {
		t.Fatalf("expected shortfall to equal the full request, got %v", details["shortfall"])
	}
}

func TestDepleteInvalidQuantity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedBatch(t, conn, product, 5, date(2026, time.September, 10))

	for _, qty := range []int{0, -3} {
		_, err := Deplete(ctx, conn, product, qty)
		if err == nil {
			t.Fatalf("expected validation error for qty %d", qty)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("unexpected error for qty %d: %v", qty, err)
		}
	}
}

func TestDepleteTiesBreakDeterministically(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()

	expiry := date(2026, time.September, 15)
	reception := date(2026, time.August, 15)
	first := models.Batch{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), ProductID: product, Quantity: 4, ExpirationDate: expiry, ReceptionDate: reception}
	second := models.Batch{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), ProductID: product, Quantity: 4, ExpirationDate: expiry, ReceptionDate: reception}
	for _, batch := range []models.Batch{second, first} {
		if err := conn.Create(&batch).Error; err != nil {
			t.Fatalf("seed batch: %v", err)
		}
	}

	var result *DepletionResult
	err := conn.Transaction(func(tx *gorm.DB) error {
		var terr error
		result, terr = Deplete(ctx, tx, product, 6)
		return terr
	})
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}

	if result.Deductions[0].BatchID != first.ID || result.Deductions[0].Taken != 4 {
		t.Fatalf("expected lowest id drained first on equal expiry: %+v", result.Deductions)
	}
	if result.Deductions[1].BatchID != second.ID || result.Deductions[1].Taken != 2 {
		t.Fatalf("expected remainder from higher id: %+v", result.Deductions)
	}
}

func TestDepleteConservesQuantity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()

	seedBatch(t, conn, product, 2, date(2026, time.September, 1))
	seedBatch(t, conn, product, 3, date(2026, time.September, 8))
	seedBatch(t, conn, product, 9, date(2026, time.September, 22))

	const requested = 11
	var result *DepletionResult
	err := conn.Transaction(func(tx *gorm.DB) error {
		var terr error
		result, terr = Deplete(ctx, tx, product, requested)
		return terr
	})
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}

	taken := 0
	for _, deduction := range result.Deductions {
		if deduction.Taken <= 0 {
			t.Fatalf("deduction must be positive: %+v", deduction)
		}
		if deduction.Remaining < 0 {
			t.Fatalf("batch left negative: %+v", deduction)
		}
		taken += deduction.Taken
	}
	if taken != requested {
		t.Fatalf("takes sum to %d, requested %d", taken, requested)
	}

	var total int64
	if err := conn.Model(&models.Batch{}).Where("product_id = ?", product).Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error; err != nil {
		t.Fatalf("sum quantities: %v", err)
	}
	if total != 14-requested {
		t.Fatalf("expected %d units on hand, got %d", 14-requested, total)
	}
}
