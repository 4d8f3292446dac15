package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox/idempotency"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox/payloads"
)

const stockNotificationConsumer = "stock-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer watches domain events and turns stock alerts into notification rows.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewConsumer builds a stock notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	switch eventType {
	case enums.EventStockLow, enums.EventBatchExpired, enums.EventNotificationRequested:
	default:
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, stockNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	notification, err := c.buildNotification(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, stockNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"product_id": notification.ProductID.String(),
		"type":       notification.Type.String(),
	})

	if err := c.repo.Create(ctx, notification); err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		_ = c.idempotency.Delete(ctx, stockNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "notification created")
	return processResult{ack: true}
}

func (c *Consumer) buildNotification(eventType enums.OutboxEventType, data json.RawMessage) (*models.Notification, error) {
	switch eventType {
	case enums.EventStockLow:
		var payload payloads.StockLowEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.ProductID == uuid.Nil {
			return nil, fmt.Errorf("product id missing")
		}
		return &models.Notification{
			ID:        uuid.New(),
			ProductID: payload.ProductID,
			Type:      enums.NotificationTypeLowStock,
			Title:     "Low stock",
			Message:   fmt.Sprintf("Stock dropped to %d units, below the minimum of %d.", payload.CurrentStock, payload.MinStock),
		}, nil
	case enums.EventBatchExpired:
		var payload payloads.BatchExpiredEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.ProductID == uuid.Nil {
			return nil, fmt.Errorf("product id missing")
		}
		return &models.Notification{
			ID:        uuid.New(),
			ProductID: payload.ProductID,
			Type:      enums.NotificationTypeBatchExpired,
			Title:     "Batch expired",
			Message:   fmt.Sprintf("Batch %s expired on %s with %d units remaining.", payload.BatchID, payload.ExpirationDate.Format("2006-01-02"), payload.Quantity),
		}, nil
	case enums.EventNotificationRequested:
		var payload payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.ProductID == uuid.Nil {
			return nil, fmt.Errorf("product id missing")
		}
		if !payload.Type.IsValid() {
			return nil, fmt.Errorf("invalid notification type %q", payload.Type)
		}
		return &models.Notification{
			ID:        uuid.New(),
			ProductID: payload.ProductID,
			Type:      payload.Type,
			Title:     payload.Type.Title(),
			Message:   payload.Message,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported event type %q", eventType)
	}
}
