package kits

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

// Repository wires together kit persistence helpers.
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

// Create persists the kit together with its items.
func (r *Repository) Create(ctx context.Context, kit *models.Kit) (*models.Kit, error) {
	if err := r.db.WithContext(ctx).Create(kit).Error; err != nil {
		return nil, err
	}
	return kit, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Kit, error) {
	var kit models.Kit
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&kit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "kit not found")
		}
		return nil, err
	}
	return &kit, nil
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.Kit, error) {
	query := r.db.WithContext(ctx).Preload("Items")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var kits []models.Kit
	err := query.Order("name ASC").Find(&kits).Error
	return kits, err
}

func (r *Repository) Update(ctx context.Context, kit *models.Kit) (*models.Kit, error) {
	if err := r.db.WithContext(ctx).Save(kit).Error; err != nil {
		return nil, err
	}
	return kit, nil
}

// ReplaceItems swaps the kit's item rows inside one transaction.
func (r *Repository) ReplaceItems(ctx context.Context, kitID uuid.UUID, items []models.KitItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.KitItem{}, "kit_id = ?", kitID).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}
