package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	"github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
	"github.com/inventiapp/stocktrack-backend/pkg/enums"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
)

type recordingEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func newExpiredBatchFixture(t *testing.T) (*gorm.DB, *expiredBatchJob, *recordingEmitter) {
	t.Helper()
	dsn := "file:cron_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Batch{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	client, err := db.NewFromConn(conn)
	if err != nil {
		t.Fatalf("wrap conn: %v", err)
	}
	emitter := &recordingEmitter{}
	jobIface, err := NewExpiredBatchJob(ExpiredBatchJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		DB:      client,
		Batches: inventory.NewRepository(conn),
		Outbox:  emitter,
	})
	if err != nil {
		t.Fatalf("NewExpiredBatchJob: %v", err)
	}
	return conn, jobIface.(*expiredBatchJob), emitter
}

func seedCronBatch(t *testing.T, conn *gorm.DB, qty int, expires time.Time) models.Batch {
	t.Helper()
	batch := models.Batch{
		ID:             uuid.New(),
		ProductID:      uuid.New(),
		Quantity:       qty,
		ExpirationDate: expires,
		ReceptionDate:  expires.AddDate(0, -1, 0),
	}
	if err := conn.Create(&batch).Error; err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

func TestExpiredBatchJobZeroesExpiredStock(t *testing.T) {
	conn, job, emitter := newExpiredBatchFixture(t)
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	expired := seedCronBatch(t, conn, 4, now.AddDate(0, 0, -2))
	alreadyEmpty := seedCronBatch(t, conn, 0, now.AddDate(0, 0, -5))
	fresh := seedCronBatch(t, conn, 9, now.AddDate(0, 1, 0))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var swept models.Batch
	if err := conn.First(&swept, "id = ?", expired.ID).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if swept.Quantity != 0 {
		t.Fatalf("expected zeroed batch, got %d", swept.Quantity)
	}

	var untouched models.Batch
	if err := conn.First(&untouched, "id = ?", fresh.ID).Error; err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	if untouched.Quantity != 9 {
		t.Fatalf("expected fresh batch untouched, got %d", untouched.Quantity)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventBatchExpired || event.AggregateID != expired.ID {
		t.Fatalf("unexpected event %+v", event)
	}
	for _, evt := range emitter.events {
		if evt.AggregateID == alreadyEmpty.ID {
			t.Fatal("empty batches must not be swept again")
		}
	}
}

func TestExpiredBatchJobIsIdempotent(t *testing.T) {
	conn, job, emitter := newExpiredBatchFixture(t)
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	seedCronBatch(t, conn, 4, now.AddDate(0, 0, -2))

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected a single event across runs, got %d", len(emitter.events))
	}
}

func TestExpiredBatchJobCollectsPerBatchErrors(t *testing.T) {
	conn, job, emitter := newExpiredBatchFixture(t)
	now := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }
	emitter.err = context.DeadlineExceeded

	first := seedCronBatch(t, conn, 4, now.AddDate(0, 0, -2))
	second := seedCronBatch(t, conn, 6, now.AddDate(0, 0, -3))

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected combined error")
	}

	// Emit failures roll the per-batch transaction back.
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		var batch models.Batch
		if err := conn.First(&batch, "id = ?", id).Error; err != nil {
			t.Fatalf("reload batch: %v", err)
		}
		if batch.Quantity == 0 {
			t.Fatalf("expected batch %s untouched after rollback", id)
		}
	}
}
