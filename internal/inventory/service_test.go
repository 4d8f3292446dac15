package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
)

type fakeProductLoader struct {
	t        *testing.T
	products map[uuid.UUID]*models.Product
	strict   bool
}

func (f *fakeProductLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if f.strict {
		f.t.Errorf("product loader called for %s, expected no reads", id)
	}
	if product, ok := f.products[id]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return r.Emit(ctx, tx, event)
}

func newTestService(t *testing.T, conn *gorm.DB, products *fakeProductLoader, emitter *recordingEmitter) Service {
	t.Helper()
	client, err := db.NewFromConn(conn)
	if err != nil {
		t.Fatalf("wrap conn: %v", err)
	}
	svc, err := NewService(NewRepository(conn), client, products, emitter)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func testProduct(minStock int) *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		Name:      "Test Product",
		MinStock:  minStock,
		UnitPrice: decimal.NewFromFloat(9.50),
		IsActive:  true,
	}
}

func TestServiceDepleteStockEmitsEvents(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := testProduct(5)
	loader := &fakeProductLoader{t: t, products: map[uuid.UUID]*models.Product{product.ID: product}}
	emitter := &recordingEmitter{}
	svc := newTestService(t, conn, loader, emitter)

	seedBatch(t, conn, product.ID, 5, date(2026, time.September, 10))
	seedBatch(t, conn, product.ID, 10, date(2026, time.October, 1))

	result, err := svc.DepleteStock(ctx, nil, product.ID, 12)
	if err != nil {
		t.Fatalf("deplete: %v", err)
	}
	if len(result.Deductions) != 2 {
		t.Fatalf("expected 2 deductions, got %d", len(result.Deductions))
	}

	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	if emitter.events[0].EventType != enums.EventStockDepleted {
		t.Fatalf("expected stock depleted first, got %s", emitter.events[0].EventType)
	}
	if emitter.events[1].EventType != enums.EventStockLow {
		t.Fatalf("expected stock low second, got %s", emitter.events[1].EventType)
	}
	if emitter.events[0].AggregateID != product.ID {
		t.Fatalf("unexpected aggregate id %s", emitter.events[0].AggregateID)
	}

	total, err := svc.ProductStock(ctx, product.ID)
	if err != nil {
		t.Fatalf("product stock: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 units left, got %d", total)
	}
}

func TestServiceDepleteStockAboveMinimumSkipsLowEvent(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := testProduct(2)
	loader := &fakeProductLoader{t: t, products: map[uuid.UUID]*models.Product{product.ID: product}}
	emitter := &recordingEmitter{}
	svc := newTestService(t, conn, loader, emitter)

	seedBatch(t, conn, product.ID, 10, date(2026, time.September, 10))

	if _, err := svc.DepleteStock(ctx, nil, product.ID, 4); err != nil {
		t.Fatalf("deplete: %v", err)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventStockDepleted {
		t.Fatalf("expected only the depleted event, got %+v", emitter.events)
	}
}

func TestServiceDepleteStockValidationBeforeReads(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	loader := &fakeProductLoader{t: t, strict: true}
	emitter := &recordingEmitter{}
	svc := newTestService(t, conn, loader, emitter)

	if _, err := svc.DepleteStock(ctx, nil, uuid.Nil, 3); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil product, got %v", err)
	}
	if _, err := svc.DepleteStock(ctx, nil, uuid.New(), 0); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("no events expected, got %d", len(emitter.events))
	}
}

func TestServiceDepleteStockUnknownProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	loader := &fakeProductLoader{t: t, products: map[uuid.UUID]*models.Product{}}
	svc := newTestService(t, conn, loader, &recordingEmitter{})

	_, err := svc.DepleteStock(ctx, nil, uuid.New(), 3)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceDepleteStockInsufficientLeavesStateAndEmitsNothing(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := testProduct(0)
	loader := &fakeProductLoader{t: t, products: map[uuid.UUID]*models.Product{product.ID: product}}
	emitter := &recordingEmitter{}
	svc := newTestService(t, conn, loader, emitter)

	batch := seedBatch(t, conn, product.ID, 3, date(2026, time.September, 10))

	_, err := svc.DepleteStock(ctx, nil, product.ID, 5)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("no events expected on failure, got %d", len(emitter.events))
	}
	if got := loadBatch(t, conn, batch.ID); got.Quantity != 3 {
		t.Fatalf("expected rollback to keep quantity 3, got %d", got.Quantity)
	}
}

func TestServiceCreateBatch(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := testProduct(0)
	loader := &fakeProductLoader{t: t, products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, conn, loader, &recordingEmitter{})

	dto, err := svc.CreateBatch(ctx, CreateBatchInput{
		ProductID:      product.ID,
		Quantity:       20,
		ExpirationDate: date(2026, time.December, 1),
		ReceptionDate:  date(2026, time.August, 30),
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	if dto.Quantity != 20 || dto.ProductID != product.ID {
		t.Fatalf("unexpected dto %+v", dto)
	}

	cases := []struct {
		name  string
		input CreateBatchInput
	}{
		{"missingProduct", CreateBatchInput{Quantity: 5, ExpirationDate: date(2026, time.December, 1), ReceptionDate: date(2026, time.August, 30)}},
		{"zeroQuantity", CreateBatchInput{ProductID: product.ID, Quantity: 0, ExpirationDate: date(2026, time.December, 1), ReceptionDate: date(2026, time.August, 30)}},
		{"missingExpiry", CreateBatchInput{ProductID: product.ID, Quantity: 5, ReceptionDate: date(2026, time.August, 30)}},
		{"expiryBeforeReception", CreateBatchInput{ProductID: product.ID, Quantity: 5, ExpirationDate: date(2026, time.August, 1), ReceptionDate: date(2026, time.August, 30)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateBatch(ctx, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestServiceUpdateBatchRejectsNegativeQuantity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	product := testProduct(0)
	loader := &fakeProductLoader{t: t, products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc := newTestService(t, conn, loader, &recordingEmitter{})

	batch := seedBatch(t, conn, product.ID, 8, date(2026, time.October, 1))

	negative := -1
	_, err := svc.UpdateBatch(ctx, batch.ID, UpdateBatchInput{Quantity: &negative})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	updated := 15
	dto, err := svc.UpdateBatch(ctx, batch.ID, UpdateBatchInput{Quantity: &updated})
	if err != nil {
		t.Fatalf("update batch: %v", err)
	}
	if dto.Quantity != 15 {
		t.Fatalf("expected quantity 15, got %d", dto.Quantity)
	}
}
