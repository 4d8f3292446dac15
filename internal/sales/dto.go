package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
)

// SaleDTO is the sale payload returned to clients.
type SaleDTO struct {
	ID          uuid.UUID         `json:"id"`
	StaffUserID uuid.UUID         `json:"staff_user_id"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Status      string            `json:"status"`
	LineItems   []SaleLineItemDTO `json:"line_items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SaleLineItemDTO is one product position on a sale.
type SaleLineItemDTO struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SaleLineInput is one requested position on a new sale.
type SaleLineInput struct {
	ProductID  uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

// CreateSaleInput holds the validated payload to record a sale.
type CreateSaleInput struct {
	TotalAmount decimal.Decimal
	Lines       []SaleLineInput
}

// ListSalesInput carries cursor pagination plus optional filters.
type ListSalesInput struct {
	Limit       int
	Cursor      string
	StaffUserID *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// SaleListResult is one page of sales.
type SaleListResult struct {
	Sales      []SaleDTO `json:"sales"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

func toSaleDTO(sale *models.Sale) *SaleDTO {
	if sale == nil {
		return nil
	}
	lines := make([]SaleLineItemDTO, 0, len(sale.LineItems))
	for _, item := range sale.LineItems {
		lines = append(lines, SaleLineItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return &SaleDTO{
		ID:          sale.ID,
		StaffUserID: sale.StaffUserID,
		TotalAmount: sale.TotalAmount,
		Status:      sale.Status.String(),
		LineItems:   lines,
		CreatedAt:   sale.CreatedAt,
		UpdatedAt:   sale.UpdatedAt,
	}
}
