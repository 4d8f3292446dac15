package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:models_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return conn
}

// Every model must migrate cleanly under the sqlite dialector the test
// harnesses use; production DDL lives in pkg/migrate/migrations.
func TestModelsMigrateOnSqlite(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	if err := conn.AutoMigrate(
		&User{}, &RoleGrant{},
		&Category{}, &Provider{}, &Product{},
		&Kit{}, &KitItem{},
		&Batch{},
		&Sale{}, &SaleLineItem{},
		&Notification{},
		&OutboxEvent{}, &OutboxDLQ{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestInactiveProductPersistsAsInactive(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	if err := conn.AutoMigrate(&Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	row := Product{
		ID:         uuid.New(),
		Name:       "Retired widget",
		CategoryID: uuid.New(),
		ProviderID: uuid.New(),
		UnitPrice:  decimal.NewFromFloat(9.99),
		IsActive:   false,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var loaded Product
	if err := conn.First(&loaded, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.IsActive {
		t.Fatalf("expected inactive product to stay inactive")
	}
}

func TestNotificationTimestampsRoundTrip(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	if err := conn.AutoMigrate(&Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	readAt := time.Date(2026, time.March, 4, 10, 30, 0, 0, time.UTC)
	row := Notification{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		Type:      enums.NotificationTypeLowStock,
		Title:     "Low stock",
		Message:   "Widget is below minimum",
		ReadAt:    &readAt,
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var loaded Notification
	if err := conn.First(&loaded, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ReadAt == nil || !loaded.ReadAt.Equal(readAt) {
		t.Fatalf("expected read_at %v, got %v", readAt, loaded.ReadAt)
	}
	if loaded.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be populated")
	}
}

func TestRoleGrantPermissionsRoundTrip(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	if err := conn.AutoMigrate(&RoleGrant{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	row := RoleGrant{
		Role:        enums.UserRoleAdmin,
		Permissions: pq.StringArray{"users:write", "reports:read"},
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var loaded RoleGrant
	if err := conn.First(&loaded, "role = ?", enums.UserRoleAdmin).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Permissions) != 2 || loaded.Permissions[0] != "users:write" {
		t.Fatalf("unexpected permissions %v", loaded.Permissions)
	}
}
