package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ExpiredBatchJobParams configures the expiry sweep.
type ExpiredBatchJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Batches *inventory.Repository
	Outbox  outboxEmitter
}

// NewExpiredBatchJob builds the job that zeroes batches past their expiration
// date so FEFO never hands out expired stock.
func NewExpiredBatchJob(params ExpiredBatchJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Batches == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &expiredBatchJob{
		logg:    params.Logger,
		db:      params.DB,
		batches: params.Batches,
		outbox:  params.Outbox,
		now:     time.Now,
	}, nil
}

type expiredBatchJob struct {
	logg    *logger.Logger
	db      txRunner
	batches *inventory.Repository
	outbox  outboxEmitter
	now     func() time.Time
}

func (j *expiredBatchJob) Name() string { return "expired-batch" }

// Run sweeps every expired batch that still carries stock. Each batch is
// zeroed in its own transaction so one failure does not roll back the rest;
// errors are combined and surfaced together.
func (j *expiredBatchJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.batches.ListExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired batches: %w", err)
	}

	var errs error
	count := 0
	for _, batch := range expired {
		if err := j.sweepBatch(ctx, batch, now); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("batch %s: %w", batch.ID, err))
			continue
		}
		count++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired": len(expired),
		"swept":   count,
	})
	j.logg.Info(logCtx, "expired batch sweep complete")
	return errs
}

func (j *expiredBatchJob) sweepBatch(ctx context.Context, batch models.Batch, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := j.batches.WithTx(tx).UpdateQuantity(ctx, batch.ID, 0); err != nil {
			return err
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventBatchExpired,
			AggregateType: enums.AggregateBatch,
			AggregateID:   batch.ID,
			Data: payloads.BatchExpiredEvent{
				BatchID:        batch.ID,
				ProductID:      batch.ProductID,
				Quantity:       batch.Quantity,
				ExpirationDate: batch.ExpirationDate,
			},
			Version:    1,
			OccurredAt: now,
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
