package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardStats holds the headline counters for the current month.
type DashboardStats struct {
	ActiveProducts      int64           `json:"active_products"`
	MonthlyIncome       decimal.Decimal `json:"monthly_income"`
	MonthlySalesCount   int             `json:"monthly_sales_count"`
	ProductsWithAlerts  int             `json:"products_with_alerts"`
	UnreadNotifications int64           `json:"unread_notifications"`
}

// MonthlyIncomePoint is one month of the income series.
type MonthlyIncomePoint struct {
	Month      time.Month      `json:"month"`
	Income     decimal.Decimal `json:"income"`
	SalesCount int             `json:"sales_count"`
}

// ProductSalesTotal aggregates sold units and revenue for one product.
type ProductSalesTotal struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// LowStockAlert flags a product whose on-hand stock sits under its minimum.
type LowStockAlert struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
}

// BatchAlert flags a batch that is expired or close to expiring.
type BatchAlert struct {
	BatchID        uuid.UUID `json:"batch_id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// AlertsSummary groups the stock warnings shown on the dashboard.
type AlertsSummary struct {
	LowStock       []LowStockAlert `json:"low_stock"`
	ExpiredBatches []BatchAlert    `json:"expired_batches"`
	ExpiringSoon   []BatchAlert    `json:"expiring_soon"`
}

// DashboardView is the combined payload for the dashboard endpoint.
type DashboardView struct {
	Stats         DashboardStats       `json:"stats"`
	MonthlyIncome []MonthlyIncomePoint `json:"monthly_income"`
	TopProducts   []ProductSalesTotal  `json:"top_products"`
	Alerts        AlertsSummary        `json:"alerts"`
}
