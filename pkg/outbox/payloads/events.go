package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventiapp/stocktrack-backend/pkg/enums"
)

// SaleLineFact is one product position carried on a sale event.
type SaleLineFact struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// SaleCompletedEvent is emitted when a sale commits together with its stock writes.
type SaleCompletedEvent struct {
	SaleID      uuid.UUID       `json:"sale_id"`
	StaffUserID uuid.UUID       `json:"staff_user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineItems   []SaleLineFact  `json:"line_items"`
	CompletedAt time.Time       `json:"completed_at"`
}

// BatchTake records how much a single batch contributed to a depletion.
type BatchTake struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Taken     int       `json:"taken"`
	Remaining int       `json:"remaining"`
}

// StockDepletedEvent reports a completed depletion across batches.
type StockDepletedEvent struct {
	ProductID uuid.UUID   `json:"product_id"`
	Requested int         `json:"requested"`
	Takes     []BatchTake `json:"takes"`
	SaleID    *uuid.UUID  `json:"sale_id,omitempty"`
}

// StockLowEvent signals a product dropped below its minimum stock.
type StockLowEvent struct {
	ProductID    uuid.UUID `json:"product_id"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
}

// BatchExpiredEvent is emitted when the expiry sweep zeroes a batch.
type BatchExpiredEvent struct {
	BatchID        uuid.UUID `json:"batch_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// NotificationRequestedEvent tells downstream systems to alert staff.
type NotificationRequestedEvent struct {
	ProductID uuid.UUID              `json:"product_id"`
	Type      enums.NotificationType `json:"type"`
	Message   string                 `json:"message"`
}
