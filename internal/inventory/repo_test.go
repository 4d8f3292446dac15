package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

func TestRepositoryListByProductOrdersByExpiry(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	product := uuid.New()

	late := seedBatch(t, conn, product, 5, date(2026, time.December, 1))
	early := seedBatch(t, conn, product, 5, date(2026, time.September, 1))
	middle := seedBatch(t, conn, product, 5, date(2026, time.October, 15))
	seedBatch(t, conn, uuid.New(), 5, date(2026, time.August, 1))

	batches, err := repo.ListByProduct(ctx, product)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	want := []uuid.UUID{early.ID, middle.ID, late.ID}
	for i, batch := range batches {
		if batch.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], batch.ID)
		}
	}
}

func TestRepositoryUpdateQuantity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	product := uuid.New()
	batch := seedBatch(t, conn, product, 5, date(2026, time.September, 1))

	if err := repo.UpdateQuantity(ctx, batch.ID, 2); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if got := loadBatch(t, conn, batch.ID); got.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", got.Quantity)
	}

	err := repo.UpdateQuantity(ctx, batch.ID, -1)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := loadBatch(t, conn, batch.ID); got.Quantity != 2 {
		t.Fatalf("rejected update must not change quantity, got %d", got.Quantity)
	}

	err = repo.UpdateQuantity(ctx, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositorySumByProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	product := uuid.New()

	seedBatch(t, conn, product, 4, date(2026, time.September, 1))
	seedBatch(t, conn, product, 0, date(2026, time.September, 5))
	seedBatch(t, conn, product, 7, date(2026, time.October, 1))

	total, err := repo.SumByProduct(ctx, product)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if total != 11 {
		t.Fatalf("expected 11, got %d", total)
	}

	total, err = repo.SumByProduct(ctx, uuid.New())
	if err != nil {
		t.Fatalf("sum empty: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected 0 for unknown product, got %d", total)
	}
}

func TestRepositoryListExpired(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	product := uuid.New()
	asOf := date(2026, time.September, 15)

	expired := seedBatch(t, conn, product, 3, date(2026, time.September, 1))
	seedBatch(t, conn, product, 0, date(2026, time.August, 1))
	fresh := seedBatch(t, conn, product, 5, date(2026, time.October, 1))

	rows, err := repo.ListExpired(ctx, asOf)
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != expired.ID {
		t.Fatalf("expected only the stocked expired batch, got %+v", rows)
	}

	window, err := repo.ListExpiringBetween(ctx, asOf, date(2026, time.October, 15))
	if err != nil {
		t.Fatalf("list expiring: %v", err)
	}
	if len(window) != 1 || window[0].ID != fresh.ID {
		t.Fatalf("expected only the upcoming batch, got %+v", window)
	}
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	batch := seedBatch(t, conn, uuid.New(), 3, date(2026, time.September, 1))

	if err := repo.Delete(ctx, batch.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, batch.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := repo.Delete(ctx, batch.ID); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for second delete, got %v", err)
	}
}
