package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox/payloads"
	"github.com/inventiapp/stocktrack-backend/pkg/pagination"
)

// totalTolerance absorbs rounding differences between client and server money math.
var totalTolerance = decimal.NewFromFloat(0.01)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockDepleter interface {
	Deplete(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (*inventory.DepletionResult, error)
	OnHand(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type fefoEngine struct{}

func (fefoEngine) Deplete(ctx context.Context, tx *gorm.DB, productID uuid.UUID, quantity int) (*inventory.DepletionResult, error) {
	return inventory.Deplete(ctx, tx, productID, quantity)
}

func (fefoEngine) OnHand(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (int, error) {
	return inventory.NewRepository(tx).SumByProduct(ctx, productID)
}

// Service executes sale fulfillment and sale queries.
type Service interface {
	CreateSale(ctx context.Context, staffUserID uuid.UUID, input CreateSaleInput) (*SaleDTO, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*SaleDTO, error)
	ListSales(ctx context.Context, input ListSalesInput) (*SaleListResult, error)
}

type service struct {
	tx          txRunner
	repo        *Repository
	userRepo    userLoader
	productRepo productLoader
	stock       stockDepleter
	outbox      outboxPublisher
}

// NewService builds the sales service.
func NewService(
	tx txRunner,
	repo *Repository,
	userRepo userLoader,
	productRepo productLoader,
	stock stockDepleter,
	publisher outboxPublisher,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		stock = fefoEngine{}
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		userRepo:    userRepo,
		productRepo: productRepo,
		stock:       stock,
		outbox:      publisher,
	}, nil
}

// CreateSale records a sale and drains stock for every line inside one
// transaction. Any insufficient stock aborts the whole sale.
func (s *service) CreateSale(ctx context.Context, staffUserID uuid.UUID, input CreateSaleInput) (*SaleDTO, error) {
	if staffUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff user id required")
	}
	if err := validateSaleInput(input); err != nil {
		return nil, err
	}

	staff, err := s.userRepo.FindByID(ctx, staffUserID)
	if err != nil {
		return nil, err
	}
	if !staff.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff user is inactive")
	}

	productCache := map[uuid.UUID]*models.Product{}
	for _, line := range input.Lines {
		product, err := s.loadProduct(ctx, line.ProductID, productCache)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not active").
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
	}

	actor := &outbox.ActorRef{UserID: staffUserID, Role: staff.Role.String()}

	var result *models.Sale
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		lineItems := make([]models.SaleLineItem, 0, len(input.Lines))
		for _, line := range input.Lines {
			lineItems = append(lineItems, models.SaleLineItem{
				ID:         uuid.New(),
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  line.UnitPrice,
				TotalPrice: line.TotalPrice,
			})
		}
		sale := &models.Sale{
			ID:          uuid.New(),
			StaffUserID: staffUserID,
			TotalAmount: input.TotalAmount,
			Status:      enums.SaleStatusCompleted,
			LineItems:   lineItems,
		}
		created, err := txRepo.Create(ctx, sale)
		if err != nil {
			return err
		}

		requestedByProduct := map[uuid.UUID]int{}
		for _, line := range input.Lines {
			requestedByProduct[line.ProductID] += line.Quantity
		}
		for productID, quantity := range requestedByProduct {
			if _, err := s.stock.Deplete(ctx, tx, productID, quantity); err != nil {
				return err
			}
		}

		if err := s.emitSaleCompleted(ctx, tx, actor, created); err != nil {
			return err
		}
		for productID := range requestedByProduct {
			if err := s.emitStockLowIfNeeded(ctx, tx, actor, productID, productCache[productID]); err != nil {
				return err
			}
		}

		result, err = txRepo.FindByID(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toSaleDTO(result), nil
}

func (s *service) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleDTO, error) {
	if saleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id required")
	}
	sale, err := s.repo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return toSaleDTO(sale), nil
}

func (s *service) ListSales(ctx context.Context, input ListSalesInput) (*SaleListResult, error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	if input.From != nil && input.To != nil && !input.From.Before(*input.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must precede to")
	}

	sales, next, err := s.repo.List(ctx, listSalesParams{
		Limit:       input.Limit,
		Cursor:      cursor,
		StaffUserID: input.StaffUserID,
		From:        input.From,
		To:          input.To,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing sales")
	}

	result := &SaleListResult{Sales: make([]SaleDTO, 0, len(sales))}
	for i := range sales {
		result.Sales = append(result.Sales, *toSaleDTO(&sales[i]))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID, cache map[uuid.UUID]*models.Product) (*models.Product, error) {
	if product, ok := cache[productID]; ok {
		return product, nil
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	cache[productID] = product
	return product, nil
}

func (s *service) emitSaleCompleted(ctx context.Context, tx *gorm.DB, actor *outbox.ActorRef, sale *models.Sale) error {
	lines := make([]payloads.SaleLineFact, 0, len(sale.LineItems))
	for _, item := range sale.LineItems {
		lines = append(lines, payloads.SaleLineFact{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	completedAt := sale.CreatedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventSaleCompleted,
		AggregateType: enums.AggregateSale,
		AggregateID:   sale.ID,
		Actor:         actor,
		Version:       1,
		Data: payloads.SaleCompletedEvent{
			SaleID:      sale.ID,
			StaffUserID: sale.StaffUserID,
			TotalAmount: sale.TotalAmount,
			LineItems:   lines,
			CompletedAt: completedAt,
		},
	})
}

func (s *service) emitStockLowIfNeeded(ctx context.Context, tx *gorm.DB, actor *outbox.ActorRef, productID uuid.UUID, product *models.Product) error {
	if product == nil {
		return nil
	}
	remaining, err := s.stock.OnHand(ctx, tx, productID)
	if err != nil {
		return err
	}
	if remaining >= product.MinStock {
		return nil
	}
	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
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
	})
}

func validateSaleInput(input CreateSaleInput) error {
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale requires at least one line item")
	}

	sum := decimal.Zero
	for i, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item product id required").
				WithDetails(map[string]any{"line": i})
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive").
				WithDetails(map[string]any{"line": i})
		}
		if !line.UnitPrice.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item unit price must be positive").
				WithDetails(map[string]any{"line": i})
		}
		expected := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if expected.Sub(line.TotalPrice).Abs().GreaterThan(totalTolerance) {
			return pkgerrors.New(pkgerrors.CodeValidation, "line item total does not match unit price").
				WithDetails(map[string]any{"line": i, "expected": expected.String(), "got": line.TotalPrice.String()})
		}
		sum = sum.Add(line.TotalPrice)
	}

	if sum.Sub(input.TotalAmount).Abs().GreaterThan(totalTolerance) {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale total does not match line items").
			WithDetails(map[string]any{"expected": sum.String(), "got": input.TotalAmount.String()})
	}
	return nil
}
