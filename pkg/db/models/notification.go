package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inventiapp/stocktrack-backend/pkg/enums"
)

// Notification stores in-app stock alerts scoped to products.
type Notification struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID              `gorm:"type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"type:notification_type;not null"`
	Title     string                 `gorm:"type:text;not null"`
	Message   string                 `gorm:"type:text;not null"`
	ReadAt    *time.Time
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
