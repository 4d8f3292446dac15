package kits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbpkg "github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

// KitDTO is the kit payload returned to clients.
type KitDTO struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	IsActive  bool         `json:"is_active"`
	Items     []KitItemDTO `json:"items"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// KitItemDTO is one product line inside a kit.
type KitItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// KitItemInput is one requested line on a new or updated kit.
type KitItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// CreateKitInput holds the validated payload to create a kit.
type CreateKitInput struct {
	Name  string
	Items []KitItemInput
}

// UpdateKitInput holds optional mutation values for a kit.
type UpdateKitInput struct {
	Name     *string
	IsActive *bool
	Items    *[]KitItemInput
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes kit management operations.
type Service interface {
	CreateKit(ctx context.Context, input CreateKitInput) (*KitDTO, error)
	GetKit(ctx context.Context, kitID uuid.UUID) (*KitDTO, error)
	ListKits(ctx context.Context, includeInactive bool) ([]KitDTO, error)
	UpdateKit(ctx context.Context, kitID uuid.UUID, input UpdateKitInput) (*KitDTO, error)
	DeactivateKit(ctx context.Context, kitID uuid.UUID) error
}

type service struct {
	repo        *Repository
	productRepo productLoader
}

// NewService constructs a kit service instance.
func NewService(repo *Repository, productRepo productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("kit repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

func (s *service) CreateKit(ctx context.Context, input CreateKitInput) (*KitDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kit name required")
	}
	if err := s.validateItems(ctx, input.Items); err != nil {
		return nil, err
	}

	kitID := uuid.New()
	items := make([]models.KitItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.KitItem{
			ID:        uuid.New(),
			KitID:     kitID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	kit := &models.Kit{
		ID:       kitID,
		Name:     name,
		IsActive: true,
		Items:    items,
	}
	created, err := s.repo.Create(ctx, kit)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "kit name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating kit")
	}
	return toKitDTO(created), nil
}

func (s *service) GetKit(ctx context.Context, kitID uuid.UUID) (*KitDTO, error) {
	if kitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kit id required")
	}
	kit, err := s.repo.FindByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	return toKitDTO(kit), nil
}

func (s *service) ListKits(ctx context.Context, includeInactive bool) ([]KitDTO, error) {
	kits, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing kits")
	}
	out := make([]KitDTO, 0, len(kits))
	for i := range kits {
		out = append(out, *toKitDTO(&kits[i]))
	}
	return out, nil
}

func (s *service) UpdateKit(ctx context.Context, kitID uuid.UUID, input UpdateKitInput) (*KitDTO, error) {
	if kitID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kit id required")
	}
	kit, err := s.repo.FindByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "kit name required")
		}
		kit.Name = name
	}
	if input.IsActive != nil {
		kit.IsActive = *input.IsActive
	}
	if input.Items != nil {
		if err := s.validateItems(ctx, *input.Items); err != nil {
			return nil, err
		}
		items := make([]models.KitItem, 0, len(*input.Items))
		for _, item := range *input.Items {
			items = append(items, models.KitItem{
				ID:        uuid.New(),
				KitID:     kitID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
		}
		if err := s.repo.ReplaceItems(ctx, kitID, items); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replacing kit items")
		}
	}

	kit.Items = nil
	if _, err := s.repo.Update(ctx, kit); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "kit name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating kit")
	}

	refreshed, err := s.repo.FindByID(ctx, kitID)
	if err != nil {
		return nil, err
	}
	return toKitDTO(refreshed), nil
}

// DeactivateKit flips the active flag so the kit disappears from sale flows
// without losing its configuration.
func (s *service) DeactivateKit(ctx context.Context, kitID uuid.UUID) error {
	if kitID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "kit id required")
	}
	kit, err := s.repo.FindByID(ctx, kitID)
	if err != nil {
		return err
	}
	if !kit.IsActive {
		return nil
	}
	kit.IsActive = false
	kit.Items = nil
	if _, err := s.repo.Update(ctx, kit); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivating kit")
	}
	return nil
}

func (s *service) validateItems(ctx context.Context, items []KitItemInput) error {
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "kit requires at least one item")
	}
	seen := map[uuid.UUID]bool{}
	for i, item := range items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "kit item product id required").
				WithDetails(map[string]any{"item": i})
		}
		if seen[item.ProductID] {
			return pkgerrors.New(pkgerrors.CodeValidation, "kit item products must be unique").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		seen[item.ProductID] = true
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "kit item quantity must be positive").
				WithDetails(map[string]any{"item": i})
		}
		if !item.Price.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "kit item price must be positive").
				WithDetails(map[string]any{"item": i})
		}
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "kit item product is not active").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
	}
	return nil
}

func toKitDTO(kit *models.Kit) *KitDTO {
	items := make([]KitItemDTO, 0, len(kit.Items))
	for _, item := range kit.Items {
		items = append(items, KitItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return &KitDTO{
		ID:        kit.ID,
		Name:      kit.Name,
		IsActive:  kit.IsActive,
		Items:     items,
		CreatedAt: kit.CreatedAt,
		UpdatedAt: kit.UpdatedAt,
	}
}
