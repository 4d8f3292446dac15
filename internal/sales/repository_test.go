package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/pagination"
)

func setupSalesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:sales_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Sale{}, &models.SaleLineItem{}))
	return conn
}

func mustCreateSale(t *testing.T, repo *Repository, staffID uuid.UUID, createdAt time.Time, total string) *models.Sale {
	t.Helper()

	sale := &models.Sale{
		ID:          uuid.New(),
		StaffUserID: staffID,
		TotalAmount: decimal.RequireFromString(total),
		Status:      enums.SaleStatusCompleted,
		LineItems: []models.SaleLineItem{
			{
				ID:         uuid.New(),
				ProductID:  uuid.New(),
				Quantity:   2,
				UnitPrice:  decimal.RequireFromString("5.00"),
				TotalPrice: decimal.RequireFromString("10.00"),
			},
		},
		CreatedAt: createdAt,
	}
	created, err := repo.Create(context.Background(), sale)
	require.NoError(t, err)
	return created
}

func TestSalesRepositoryCreateAndFind(t *testing.T) {
	t.Parallel()

	conn := setupSalesTestDB(t)
	repo := NewRepository(conn)
	staffID := uuid.New()

	created := mustCreateSale(t, repo, staffID, time.Now(), "10.00")

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, staffID, found.StaffUserID)
	assert.Len(t, found.LineItems, 1)
	assert.True(t, found.TotalAmount.Equal(decimal.RequireFromString("10.00")))

	_, err = repo.FindByID(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestSalesRepositoryListFiltersAndPaginates(t *testing.T) {
	t.Parallel()

	conn := setupSalesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	staffA := uuid.New()
	staffB := uuid.New()
	base := time.Date(2026, time.August, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		mustCreateSale(t, repo, staffA, base.Add(time.Duration(i)*time.Hour), "10.00")
	}
	mustCreateSale(t, repo, staffB, base.Add(30*time.Hour), "10.00")

	sales, next, err := repo.List(ctx, listSalesParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, sales, 2)
	require.NotNil(t, next)
	assert.True(t, sales[0].CreatedAt.After(sales[1].CreatedAt))

	rest, _, err := repo.List(ctx, listSalesParams{Limit: 10, Cursor: &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}})
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	byStaff, _, err := repo.List(ctx, listSalesParams{Limit: 10, StaffUserID: &staffB})
	require.NoError(t, err)
	require.Len(t, byStaff, 1)
	assert.Equal(t, staffB, byStaff[0].StaffUserID)

	from := base.Add(30 * time.Minute)
	to := base.Add(90 * time.Minute)
	window, _, err := repo.List(ctx, listSalesParams{Limit: 10, From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestSalesRepositoryListBetween(t *testing.T) {
	t.Parallel()

	conn := setupSalesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	inside := mustCreateSale(t, repo, uuid.New(), base.Add(24*time.Hour), "10.00")
	mustCreateSale(t, repo, uuid.New(), base.Add(31*24*time.Hour), "10.00")

	sales, err := repo.ListBetween(ctx, base, base.Add(30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, inside.ID, sales[0].ID)
	assert.Len(t, sales[0].LineItems, 1)
}
