package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

// Repository wires together batch persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new batch row.
func (r *Repository) Create(ctx context.Context, batch *models.Batch) (*models.Batch, error) {
	if err := r.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// FindByID loads a single batch.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
		}
		return nil, err
	}
	return &batch, nil
}

// ListByProduct returns every batch for the product, including depleted rows,
// in first-expires-first-out order.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("expiration_date ASC").
		Order("reception_date ASC").
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}

// ListByProductForUpdate loads the product's batches in FEFO order holding
// row locks so concurrent depletions of the same product serialize.
// sqlite has no row locks; its single-writer semantics cover tests.
func (r *Repository) ListByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]models.Batch, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batches []models.Batch
	err := query.
		Where("product_id = ?", productID).
		Order("expiration_date ASC").
		Order("reception_date ASC").
		Order("id ASC").
		Find(&batches).Error
	return batches, err
}

// UpdateQuantity persists a new quantity for the batch. Negative values are
// rejected before any write happens.
func (r *Repository) UpdateQuantity(ctx context.Context, batchID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch quantity cannot be negative")
	}
	result := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("id = ?", batchID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	return nil
}

// Update persists mutable batch fields.
func (r *Repository) Update(ctx context.Context, batch *models.Batch) (*models.Batch, error) {
	if batch.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch quantity cannot be negative")
	}
	if err := r.db.WithContext(ctx).Save(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// Delete removes a batch row entirely. Depletion never deletes; this exists
// for correcting data-entry mistakes.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Batch{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
	}
	return nil
}

// SumByProduct returns the on-hand quantity for one product.
func (r *Repository) SumByProduct(ctx context.Context, productID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return int(total), err
}

// ProductStock is one product's aggregated on-hand quantity.
type ProductStock struct {
	ProductID uuid.UUID
	Quantity  int
}

// SumAll returns on-hand quantities grouped by product.
func (r *Repository) SumAll(ctx context.Context) ([]ProductStock, error) {
	var rows []ProductStock
	err := r.db.WithContext(ctx).
		Model(&models.Batch{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS quantity").
		Group("product_id").
		Scan(&rows).Error
	return rows, err
}

// ListExpired returns batches past their expiration date that still hold stock.
func (r *Repository) ListExpired(ctx context.Context, asOf time.Time) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.db.WithContext(ctx).
		Where("expiration_date < ? AND quantity > 0", asOf).
		Order("expiration_date ASC").
		Find(&batches).Error
	return batches, err
}

// ListExpiringBetween returns stocked batches whose expiry falls inside the window.
func (r *Repository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Batch, error) {
	var batches []models.Batch
	err := r.db.WithContext(ctx).
		Where("expiration_date >= ? AND expiration_date < ? AND quantity > 0", from, to).
		Order("expiration_date ASC").
		Find(&batches).Error
	return batches, err
}
