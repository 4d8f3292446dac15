package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
)

const defaultLowStockNotifyHours = 24

type lowStockProductRepo interface {
	ListBelowMinStock(ctx context.Context) ([]models.Product, error)
}

type stockSummer interface {
	SumByProduct(ctx context.Context, productID uuid.UUID) (int, error)
}

type lowStockNotificationRepo interface {
	ExistsSince(ctx context.Context, productID uuid.UUID, kind enums.NotificationType, since time.Time) (bool, error)
	Create(ctx context.Context, notification *models.Notification) error
}

// LowStockJobParams configures the minimum stock scan.
type LowStockJobParams struct {
	Logger        *logger.Logger
	Products      lowStockProductRepo
	Stock         stockSummer
	Notifications lowStockNotificationRepo
	NotifyHours   int
}

// NewLowStockJob builds the job that scans for products under their minimum
// and files a notification at most once per product per notify window.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	notifyHours := params.NotifyHours
	if notifyHours <= 0 {
		notifyHours = defaultLowStockNotifyHours
	}
	return &lowStockJob{
		logg:          params.Logger,
		products:      params.Products,
		stock:         params.Stock,
		notifications: params.Notifications,
		notifyWindow:  time.Duration(notifyHours) * time.Hour,
		now:           time.Now,
	}, nil
}

type lowStockJob struct {
	logg          *logger.Logger
	products      lowStockProductRepo
	stock         stockSummer
	notifications lowStockNotificationRepo
	notifyWindow  time.Duration
	now           func() time.Time
}

func (j *lowStockJob) Name() string { return "low-stock" }

func (j *lowStockJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	belowMin, err := j.products.ListBelowMinStock(ctx)
	if err != nil {
		return fmt.Errorf("query low stock products: %w", err)
	}

	var errs error
	notified := 0
	for i := range belowMin {
		created, err := j.notifyProduct(ctx, &belowMin[i], now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", belowMin[i].ID, err))
			continue
		}
		if created {
			notified++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"below_min": len(belowMin),
		"notified":  notified,
	})
	j.logg.Info(logCtx, "low stock scan complete")
	return errs
}

func (j *lowStockJob) notifyProduct(ctx context.Context, product *models.Product, now time.Time) (bool, error) {
	since := now.Add(-j.notifyWindow)
	exists, err := j.notifications.ExistsSince(ctx, product.ID, enums.NotificationTypeLowStock, since)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	onHand, err := j.stock.SumByProduct(ctx, product.ID)
	if err != nil {
		return false, err
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		ProductID: product.ID,
		Type:      enums.NotificationTypeLowStock,
		Title:     enums.NotificationTypeLowStock.Title(),
		Message:   fmt.Sprintf("%s has %d units on hand, below the minimum of %d.", product.Name, onHand, product.MinStock),
		CreatedAt: now,
	}
	if err := j.notifications.Create(ctx, notification); err != nil {
		return false, err
	}
	return true, nil
}
