package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox/payloads"
)

// Service exposes batch management and stock depletion operations.
type Service interface {
	CreateBatch(ctx context.Context, input CreateBatchInput) (*BatchDTO, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error)
	ListBatches(ctx context.Context, productID uuid.UUID) ([]BatchDTO, error)
	UpdateBatch(ctx context.Context, batchID uuid.UUID, input UpdateBatchInput) (*BatchDTO, error)
	DeleteBatch(ctx context.Context, batchID uuid.UUID) error
	DepleteStock(ctx context.Context, actor *outbox.ActorRef, productID uuid.UUID, quantity int) (*DepletionResult, error)
	ProductStock(ctx context.Context, productID uuid.UUID) (int, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo        *Repository
	dbClient    *db.Client
	productRepo productLoader
	events      eventEmitter
}

// NewService constructs an inventory service instance.
func NewService(repo *Repository, dbClient *db.Client, productRepo productLoader, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("batch repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:        repo,
		dbClient:    dbClient,
		productRepo: productRepo,
		events:      events,
	}, nil
}

func (s *service) CreateBatch(ctx context.Context, input CreateBatchInput) (*BatchDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch quantity must be positive")
	}
	if input.ExpirationDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration date is required")
	}
	if input.ReceptionDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reception date is required")
	}
	if input.ExpirationDate.Before(input.ReceptionDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration date cannot precede reception date")
	}
	if _, err := s.productRepo.FindByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	batch := &models.Batch{
		ID:             uuid.New(),
		ProductID:      input.ProductID,
		Quantity:       input.Quantity,
		ExpirationDate: input.ExpirationDate,
		ReceptionDate:  input.ReceptionDate,
	}
	created, err := s.repo.Create(ctx, batch)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating batch")
	}
	return toBatchDTO(created), nil
}

func (s *service) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchDTO, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return toBatchDTO(batch), nil
}

func (s *service) ListBatches(ctx context.Context, productID uuid.UUID) ([]BatchDTO, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	batches, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing batches")
	}
	return toBatchDTOs(batches), nil
}

func (s *service) UpdateBatch(ctx context.Context, batchID uuid.UUID, input UpdateBatchInput) (*BatchDTO, error) {
	if batchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	if input.Quantity != nil && *input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch quantity cannot be negative")
	}

	batch, err := s.repo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if input.Quantity != nil {
		batch.Quantity = *input.Quantity
	}
	if input.ExpirationDate != nil {
		batch.ExpirationDate = *input.ExpirationDate
	}
	if input.ReceptionDate != nil {
		batch.ReceptionDate = *input.ReceptionDate
	}
	if batch.ExpirationDate.Before(batch.ReceptionDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiration date cannot precede reception date")
	}

	updated, err := s.repo.Update(ctx, batch)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating batch")
	}
	return toBatchDTO(updated), nil
}

func (s *service) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	if batchID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "batch id is required")
	}
	return s.repo.Delete(ctx, batchID)
}

// DepleteStock drains the product's batches in first-expires-first-out order
// inside a single transaction. A stock depleted event always rides the same
// transaction; a stock low event is added when the remaining total falls
// below the product's minimum.
func (s *service) DepleteStock(ctx context.Context, actor *outbox.ActorRef, productID uuid.UUID, quantity int) (*DepletionResult, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity must be positive").
			WithDetails(map[string]any{"requested": quantity})
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	var result *DepletionResult
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		depleted, err := Deplete(ctx, tx, productID, quantity)
		if err != nil {
			return err
		}
		result = depleted

		takes := make([]payloads.BatchTake, 0, len(depleted.Deductions))
		for _, deduction := range depleted.Deductions {
			takes = append(takes, payloads.BatchTake{
				BatchID:   deduction.BatchID,
				Taken:     deduction.Taken,
				Remaining: deduction.Remaining,
			})
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockDepleted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Actor:         actor,
			Version:       1,
			Data: payloads.StockDepletedEvent{
				ProductID: productID,
				Requested: quantity,
				Takes:     takes,
			},
		}); err != nil {
			return err
		}

		remaining, err := s.repo.WithTx(tx).SumByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if remaining < product.MinStock {
			if err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventStockLow,
				AggregateType: enums.AggregateProduct,
				AggregateID:   productID,
				Actor:         actor,
				Version:       1,
				Data: payloads.StockLowEvent{
					ProductID:    productID,
					CurrentStock: remaining,
					MinStock:     product.MinStock,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ProductStock(ctx context.Context, productID uuid.UUID) (int, error) {
	if productID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return 0, err
	}
	total, err := s.repo.SumByProduct(ctx, productID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing product stock")
	}
	return total, nil
}
