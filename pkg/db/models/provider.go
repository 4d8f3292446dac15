package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a supplier the store purchases inventory from.
type Provider struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FirstName string    `gorm:"column:first_name;not null"`
	LastName  string    `gorm:"column:last_name;not null"`
	Email     string    `gorm:"column:email;type:text;not null"`
	Phone     string    `gorm:"column:phone;type:text;not null"`
	RUC       string    `gorm:"column:ruc;type:text;not null;uniqueIndex"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
