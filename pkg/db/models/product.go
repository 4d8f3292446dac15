package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog entry.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Description *string         `gorm:"column:description;type:text"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	ProviderID  uuid.UUID       `gorm:"column:provider_id;type:uuid;not null"`
	MinStock    int             `gorm:"column:min_stock;not null;default:0"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	Provider    *Provider       `gorm:"foreignKey:ProviderID"`
	Batches     []Batch         `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
