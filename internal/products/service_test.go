package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/internal/categories"
	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	"github.com/inventiapp/stocktrack-backend/internal/providers"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

type productFixture struct {
	conn     *gorm.DB
	svc      Service
	category *models.Category
	provider *models.Provider
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()

	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Category{}, &models.Provider{}, &models.Batch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	category := &models.Category{ID: uuid.New(), Name: "Snacks"}
	if err := conn.Create(category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	provider := &models.Provider{
		ID:        uuid.New(),
		FirstName: "Jose",
		LastName:  "Huaman",
		Email:     "jose@example.com",
		Phone:     "+51955555555",
		RUC:       "20987654321",
		IsActive:  true,
	}
	if err := conn.Create(provider).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}

	svc, err := NewService(
		NewRepository(conn),
		categories.NewRepository(conn),
		providers.NewRepository(conn),
		inventory.NewRepository(conn),
	)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return &productFixture{conn: conn, svc: svc, category: category, provider: provider}
}

func (f *productFixture) createProduct(t *testing.T, name string, minStock int) *ProductDTO {
	t.Helper()
	dto, err := f.svc.CreateProduct(context.Background(), CreateProductInput{
		Name:       name,
		CategoryID: f.category.ID,
		ProviderID: f.provider.ID,
		MinStock:   minStock,
		UnitPrice:  decimal.RequireFromString("4.50"),
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	return dto
}

func TestProductCreateResolvesReferences(t *testing.T) {
	t.Parallel()

	f := newProductFixture(t)
	ctx := context.Background()

	dto := f.createProduct(t, "Crackers", 5)
	if dto.CategoryID != f.category.ID || dto.ProviderID != f.provider.ID {
		t.Fatalf("unexpected references %+v", dto)
	}
	if !dto.IsActive || dto.CurrentStock != 0 {
		t.Fatalf("expected active product with zero stock, got %+v", dto)
	}

	_, err := f.svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Orphan",
		CategoryID: uuid.New(),
		ProviderID: f.provider.ID,
		UnitPrice:  decimal.RequireFromString("1.00"),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown category, got %v", err)
	}

	_, err = f.svc.CreateProduct(ctx, CreateProductInput{
		Name:       "Zero Priced",
		CategoryID: f.category.ID,
		ProviderID: f.provider.ID,
		UnitPrice:  decimal.Zero,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for zero price, got %v", err)
	}
}

func TestProductGetIncludesBatchStock(t *testing.T) {
	t.Parallel()

	f := newProductFixture(t)
	ctx := context.Background()
	dto := f.createProduct(t, "Yogurt", 5)

	for _, qty := range []int{4, 7} {
		batch := models.Batch{
			ID:             uuid.New(),
			ProductID:      dto.ID,
			Quantity:       qty,
			ExpirationDate: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			ReceptionDate:  time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := f.conn.Create(&batch).Error; err != nil {
			t.Fatalf("seed batch: %v", err)
		}
	}

	fetched, err := f.svc.GetProduct(ctx, dto.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if fetched.CurrentStock != 11 {
		t.Fatalf("expected stock 11, got %d", fetched.CurrentStock)
	}
	if fetched.CategoryName != "Snacks" {
		t.Fatalf("expected category name, got %q", fetched.CategoryName)
	}
}

func TestProductListFilters(t *testing.T) {
	t.Parallel()

	f := newProductFixture(t)
	ctx := context.Background()

	f.createProduct(t, "Apple Juice", 0)
	banana := f.createProduct(t, "Banana Chips", 0)
	if err := f.svc.DeactivateProduct(ctx, banana.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	all, err := f.svc.ListProducts(ctx, ListProductsInput{Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all.Products))
	}

	active, err := f.svc.ListProducts(ctx, ListProductsInput{Limit: 10, ActiveOnly: true})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active.Products) != 1 || active.Products[0].Name != "Apple Juice" {
		t.Fatalf("expected only apple juice, got %+v", active.Products)
	}

	search, err := f.svc.ListProducts(ctx, ListProductsInput{Limit: 10, Search: "Banana"})
	if err != nil {
		t.Fatalf("list search: %v", err)
	}
	if len(search.Products) != 1 || search.Products[0].Name != "Banana Chips" {
		t.Fatalf("expected banana chips, got %+v", search.Products)
	}
}

func TestProductUpdateGuardsReferencesAndValues(t *testing.T) {
	t.Parallel()

	f := newProductFixture(t)
	ctx := context.Background()
	dto := f.createProduct(t, "Granola", 3)

	minStock := -1
	_, err := f.svc.UpdateProduct(ctx, dto.ID, UpdateProductInput{MinStock: &minStock})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation for negative min stock, got %v", err)
	}

	unknown := uuid.New()
	_, err = f.svc.UpdateProduct(ctx, dto.ID, UpdateProductInput{ProviderID: &unknown})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown provider, got %v", err)
	}

	price := decimal.RequireFromString("6.25")
	updated, err := f.svc.UpdateProduct(ctx, dto.ID, UpdateProductInput{UnitPrice: &price})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UnitPrice.Equal(price) {
		t.Fatalf("expected price %s, got %s", price, updated.UnitPrice)
	}
}

func TestProductListBelowMinStock(t *testing.T) {
	t.Parallel()

	f := newProductFixture(t)
	ctx := context.Background()
	repo := NewRepository(f.conn)

	low := f.createProduct(t, "Low Stock Item", 10)
	healthy := f.createProduct(t, "Healthy Item", 2)
	batch := models.Batch{
		ID:             uuid.New(),
		ProductID:      healthy.ID,
		Quantity:       50,
		ExpirationDate: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
		ReceptionDate:  time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := f.conn.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}

	rows, err := repo.ListBelowMinStock(ctx)
	if err != nil {
		t.Fatalf("list below min stock: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != low.ID {
		t.Fatalf("expected only the starved product, got %+v", rows)
	}
}
