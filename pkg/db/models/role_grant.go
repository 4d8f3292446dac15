package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/inventiapp/stocktrack-backend/pkg/enums"
)

// RoleGrant maps a role to the permission strings it carries.
// Rows are seeded by migration and consulted by services for
// fine-grained checks beyond the role middleware.
type RoleGrant struct {
	Role        enums.UserRole `gorm:"column:role;type:user_role;primaryKey"`
	Permissions pq.StringArray `gorm:"column:permissions;type:text;not null"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
