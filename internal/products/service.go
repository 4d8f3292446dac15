package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/pagination"
)

// Service exposes catalog product management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
}

// ListProductsInput carries cursor pagination plus optional catalog filters.
type ListProductsInput struct {
	Limit      int
	Cursor     string
	CategoryID *uuid.UUID
	ProviderID *uuid.UUID
	Search     string
	ActiveOnly bool
}

type categoryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type providerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

type stockReader interface {
	SumByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type service struct {
	repo         *Repository
	categoryRepo categoryLoader
	providerRepo providerLoader
	stock        stockReader
}

// NewService constructs a product service instance.
func NewService(repo *Repository, categoryRepo categoryLoader, providerRepo providerLoader, stock stockReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if providerRepo == nil {
		return nil, fmt.Errorf("provider repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	return &service{
		repo:         repo,
		categoryRepo: categoryRepo,
		providerRepo: providerRepo,
		stock:        stock,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if !input.UnitPrice.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unit price must be positive")
	}
	if input.MinStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product min stock cannot be negative")
	}
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	provider, err := s.providerRepo.FindByID(ctx, input.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider is inactive")
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		ProviderID:  input.ProviderID,
		MinStock:    input.MinStock,
		UnitPrice:   input.UnitPrice,
		IsActive:    true,
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating product")
	}
	return toProductDTO(created, 0), nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	stock, err := s.stock.SumByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing product stock")
	}
	return toProductDTO(product, stock), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	products, next, err := s.repo.List(ctx, listProductsParams{
		Limit:      input.Limit,
		Cursor:     cursor,
		CategoryID: input.CategoryID,
		ProviderID: input.ProviderID,
		Search:     strings.TrimSpace(input.Search),
		ActiveOnly: input.ActiveOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(products))}
	for i := range products {
		stock, err := s.stock.SumByProduct(ctx, products[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing product stock")
		}
		result.Products = append(result.Products, *toProductDTO(&products[i], stock))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *input.CategoryID
		product.Category = nil
	}
	if input.ProviderID != nil {
		provider, err := s.providerRepo.FindByID(ctx, *input.ProviderID)
		if err != nil {
			return nil, err
		}
		if !provider.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider is inactive")
		}
		product.ProviderID = *input.ProviderID
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product min stock cannot be negative")
		}
		product.MinStock = *input.MinStock
	}
	if input.UnitPrice != nil {
		if !input.UnitPrice.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product unit price must be positive")
		}
		product.UnitPrice = *input.UnitPrice
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating product")
	}
	stock, err := s.stock.SumByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing product stock")
	}
	return toProductDTO(updated, stock), nil
}

// DeactivateProduct flips the active flag. Product rows are never hard
// deleted so sale history keeps its references.
func (s *service) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return nil
	}
	product.IsActive = false
	if _, err := s.repo.Update(ctx, product); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivating product")
	}
	return nil
}
