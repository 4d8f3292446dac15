package models

import (
	"time"

	"github.com/google/uuid"
)

// Batch is one received lot of a product. Quantity only ever decreases
// once the batch is on hand; depleted rows are kept at zero so the
// ledger history stays complete.
type Batch struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Quantity       int       `gorm:"column:quantity;not null;default:0"`
	ExpirationDate time.Time `gorm:"column:expiration_date;type:date;not null"`
	ReceptionDate  time.Time `gorm:"column:reception_date;type:date;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
