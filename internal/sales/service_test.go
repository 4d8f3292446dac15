package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
)

type fakeUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserLoader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

type fakeProductLoader struct {
	products map[uuid.UUID]*models.Product
}

func (f *fakeProductLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := f.products[id]; ok {
		return product, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

type recordingPublisher struct {
	events []outbox.DomainEvent
}

func (r *recordingPublisher) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return r.Emit(ctx, tx, event)
}

type salesFixture struct {
	conn     *gorm.DB
	svc      Service
	emitter  *recordingPublisher
	staff    *models.User
	users    *fakeUserLoader
	products *fakeProductLoader
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()

	dsn := "file:sales_svc_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Sale{}, &models.SaleLineItem{}, &models.Batch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client, err := db.NewFromConn(conn)
	if err != nil {
		t.Fatalf("wrap conn: %v", err)
	}

	staff := &models.User{ID: uuid.New(), Email: "staff@example.com", Role: enums.UserRoleEmployee, IsActive: true}
	users := &fakeUserLoader{users: map[uuid.UUID]*models.User{staff.ID: staff}}
	products := &fakeProductLoader{products: map[uuid.UUID]*models.Product{}}
	emitter := &recordingPublisher{}

	svc, err := NewService(client, NewRepository(conn), users, products, nil, emitter)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &salesFixture{conn: conn, svc: svc, emitter: emitter, staff: staff, users: users, products: products}
}

func (f *salesFixture) addProduct(t *testing.T, minStock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		Name:      "Fixture Product",
		MinStock:  minStock,
		UnitPrice: decimal.RequireFromString("5.00"),
		IsActive:  true,
	}
	f.products.products[product.ID] = product
	return product
}

func (f *salesFixture) addBatch(t *testing.T, productID uuid.UUID, qty int, expires time.Time) models.Batch {
	t.Helper()
	batch := models.Batch{
		ID:             uuid.New(),
		ProductID:      productID,
		Quantity:       qty,
		ExpirationDate: expires,
		ReceptionDate:  expires.AddDate(0, -1, 0),
	}
	if err := f.conn.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

func saleLine(productID uuid.UUID, qty int, unitPrice string) SaleLineInput {
	unit := decimal.RequireFromString(unitPrice)
	return SaleLineInput{
		ProductID:  productID,
		Quantity:   qty,
		UnitPrice:  unit,
		TotalPrice: unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestCreateSaleDepletesStockAndEmitsEvents(t *testing.T) {
	t.Parallel()

	f := newSalesFixture(t)
	ctx := context.Background()

	product := f.addProduct(t, 10)
	early := f.addBatch(t, product.ID, 5, time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC))
	late := f.addBatch(t, product.ID, 10, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))

	line := saleLine(product.ID, 7, "5.00")
	dto, err := f.svc.CreateSale(ctx, f.staff.ID, CreateSaleInput{
		TotalAmount: line.TotalPrice,
		Lines:       []SaleLineInput{line},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if len(dto.LineItems) != 1 || dto.LineItems[0].Quantity != 7 {
		t.Fatalf("unexpected sale dto %+v", dto)
	}
	if dto.Status != enums.SaleStatusCompleted.String() {
		t.Fatalf("unexpected status %s", dto.Status)
	}

	var earlyRow, lateRow models.Batch
	if err := f.conn.First(&earlyRow, "id = ?", early.ID).Error; err != nil {
		t.Fatalf("load early batch: %v", err)
	}
	if err := f.conn.First(&lateRow, "id = ?", late.ID).Error; err != nil {
		t.Fatalf("load late batch: %v", err)
	}
	if earlyRow.Quantity != 0 || lateRow.Quantity != 8 {
		t.Fatalf("expected FEFO depletion 0/8, got %d/%d", earlyRow.Quantity, lateRow.Quantity)
	}

	if len(f.emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(f.emitter.events))
	}
	if f.emitter.events[0].EventType != enums.EventSaleCompleted {
		t.Fatalf("expected sale completed first, got %s", f.emitter.events[0].EventType)
	}
	if f.emitter.events[1].EventType != enums.EventStockLow {
		t.Fatalf("expected stock low, got %s", f.emitter.events[1].EventType)
	}
	if f.emitter.events[0].Actor == nil || f.emitter.events[0].Actor.UserID != f.staff.ID {
		t.Fatalf("expected actor on sale event, got %+v", f.emitter.events[0].Actor)
	}
}

func TestCreateSaleStockAboveMinimumEmitsOnlyCompletion(t *testing.T) {
	t.Parallel()

	f := newSalesFixture(t)
	ctx := context.Background()

	product := f.addProduct(t, 2)
	f.addBatch(t, product.ID, 20, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC))

	line := saleLine(product.ID, 3, "4.25")
	_, err := f.svc.CreateSale(ctx, f.staff.ID, CreateSaleInput{
		TotalAmount: line.TotalPrice,
		Lines:       []SaleLineInput{line},
	})
	if err != nil {
		t.Fatalf("create sale: %v", err)
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventSaleCompleted {
		t.Fatalf("expected only sale completed, got %+v", f.emitter.events)
	}
}

func TestCreateSaleInsufficientStockRollsBackEverything(t *testing.T) {
	t.Parallel()

	f := newSalesFixture(t)
	ctx := context.Background()

	product := f.addProduct(t, 0)
	batch := f.addBatch(t, product.ID, 3, time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC))

	line := saleLine(product.ID, 5, "5.00")
	_, err := f.svc.CreateSale(ctx, f.staff.ID, CreateSaleInput{
		TotalAmount: line.TotalPrice,
		Lines:       []SaleLineInput{line},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	var saleCount int64
	if err := f.conn.Model(&models.Sale{}).Count(&saleCount).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if saleCount != 0 {
		t.Fatalf("expected no persisted sale, got %d", saleCount)
	}
	var row models.Batch
	if err := f.conn.First(&row, "id = ?", batch.ID).Error; err != nil {
		t.Fatalf("load batch: %v", err)
	}
	if row.Quantity != 3 {
		t.Fatalf("expected rollback to keep quantity 3, got %d", row.Quantity)
	}
	if len(f.emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(f.emitter.events))
	}
}

func TestCreateSaleValidation(t *testing.T) {
	t.Parallel()

	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, 0)

	cases := []struct {
		name  string
		input CreateSaleInput
	}{
		{"noLines", CreateSaleInput{TotalAmount: decimal.Zero}},
		{"zeroQuantity", CreateSaleInput{
			TotalAmount: decimal.RequireFromString("5.00"),
			Lines:       []SaleLineInput{{ProductID: product.ID, Quantity: 0, UnitPrice: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("5.00")}},
		}},
		{"zeroUnitPrice", CreateSaleInput{
			TotalAmount: decimal.Zero,
			Lines:       []SaleLineInput{{ProductID: product.ID, Quantity: 1, UnitPrice: decimal.Zero, TotalPrice: decimal.Zero}},
		}},
		{"lineTotalMismatch", CreateSaleInput{
			TotalAmount: decimal.RequireFromString("11.00"),
			Lines:       []SaleLineInput{{ProductID: product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("11.00")}},
		}},
		{"saleTotalMismatch", CreateSaleInput{
			TotalAmount: decimal.RequireFromString("12.00"),
			Lines:       []SaleLineInput{saleLine(product.ID, 2, "5.00")},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateSale(ctx, f.staff.ID, tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateSaleTotalWithinTolerancePasses(t *testing.T) {
	t.Parallel()

	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, 0)
	f.addBatch(t, product.ID, 10, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC))

	line := saleLine(product.ID, 3, "3.33")
	_, err := f.svc.CreateSale(ctx, f.staff.ID, CreateSaleInput{
		TotalAmount: decimal.RequireFromString("10.00"),
		Lines:       []SaleLineInput{line},
	})
	if err != nil {
		t.Fatalf("expected tolerance to absorb rounding, got %v", err)
	}
}

func TestCreateSaleRejectsInactiveActors(t *testing.T) {
	t.Parallel()

	f := newSalesFixture(t)
	ctx := context.Background()
	product := f.addProduct(t, 0)
	f.addBatch(t, product.ID, 10, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC))
	line := saleLine(product.ID, 1, "5.00")

	inactive := &models.User{ID: uuid.New(), Email: "gone@example.com", Role: enums.UserRoleEmployee, IsActive: false}
	f.users.users[inactive.ID] = inactive
	_, err := f.svc.CreateSale(ctx, inactive.ID, CreateSaleInput{TotalAmount: line.TotalPrice, Lines: []SaleLineInput{line}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for inactive user, got %v", err)
	}

	_, err = f.svc.CreateSale(ctx, uuid.New(), CreateSaleInput{TotalAmount: line.TotalPrice, Lines: []SaleLineInput{line}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}

	retired := f.addProduct(t, 0)
	retired.IsActive = false
	retiredLine := saleLine(retired.ID, 1, "5.00")
	_, err = f.svc.CreateSale(ctx, f.staff.ID, CreateSaleInput{TotalAmount: retiredLine.TotalPrice, Lines: []SaleLineInput{retiredLine}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for inactive product, got %v", err)
	}
}
