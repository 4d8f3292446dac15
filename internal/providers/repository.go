package providers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

// Repository wires together provider persistence helpers.
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

func (r *Repository) Create(ctx context.Context, provider *models.Provider) (*models.Provider, error) {
	if err := r.db.WithContext(ctx).Create(provider).Error; err != nil {
		return nil, err
	}
	return provider, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.WithContext(ctx).First(&provider, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, err
	}
	return &provider, nil
}

func (r *Repository) FindByRUC(ctx context.Context, ruc string) (*models.Provider, error) {
	var provider models.Provider
	err := r.db.WithContext(ctx).First(&provider, "ruc = ?", ruc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
		}
		return nil, err
	}
	return &provider, nil
}

// List returns providers ordered by last name. Inactive rows are included
// only when requested.
func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.Provider, error) {
	query := r.db.WithContext(ctx).Model(&models.Provider{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var providers []models.Provider
	err := query.Order("last_name ASC, first_name ASC").Find(&providers).Error
	return providers, err
}

func (r *Repository) Update(ctx context.Context, provider *models.Provider) (*models.Provider, error) {
	if err := r.db.WithContext(ctx).Save(provider).Error; err != nil {
		return nil, err
	}
	return provider, nil
}
