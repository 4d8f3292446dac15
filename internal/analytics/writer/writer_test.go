package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/inventiapp/stocktrack-backend/internal/analytics/types"
)

type fakeInserter struct {
	calls  [][]any
	errs   []error
	tables []string
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.tables = append(f.tables, table)
	f.calls = append(f.calls, rows)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaximumBackoff: 2 * time.Millisecond}
}

func TestWriterFlushesAtBatchSize(t *testing.T) {
	t.Parallel()

	inserter := &fakeInserter{}
	w, err := newWithInserter(inserter, Config{SaleFactsTable: "sale_facts", BatchSize: 2, RetryPolicy: fastRetry()})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	ctx := context.Background()
	if err := w.InsertSaleFact(ctx, types.SaleFactRow{SaleID: "a"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserter.calls) != 0 {
		t.Fatalf("expected no flush before batch size reached")
	}
	if err := w.InsertSaleFact(ctx, types.SaleFactRow{SaleID: "b"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(inserter.calls))
	}
	if len(inserter.calls[0]) != 2 {
		t.Fatalf("expected 2 rows in flush, got %d", len(inserter.calls[0]))
	}
	if inserter.tables[0] != "sale_facts" {
		t.Fatalf("unexpected table %s", inserter.tables[0])
	}
}

func TestWriterFlushDrainsBuffer(t *testing.T) {
	t.Parallel()

	inserter := &fakeInserter{}
	w, err := newWithInserter(inserter, Config{SaleFactsTable: "sale_facts", BatchSize: 10, RetryPolicy: fastRetry()})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	ctx := context.Background()
	if err := w.InsertSaleFact(ctx, types.SaleFactRow{SaleID: "a"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("expected 1 flush, got %d", len(inserter.calls))
	}
	if err := w.Flush(ctx); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("empty flush should not hit bigquery")
	}
}

func TestWriterRetriesRetryableErrors(t *testing.T) {
	t.Parallel()

	inserter := &fakeInserter{errs: []error{
		&googleapi.Error{Code: http.StatusServiceUnavailable},
		status.Error(codes.Unavailable, "backend down"),
	}}
	w, err := newWithInserter(inserter, Config{SaleFactsTable: "sale_facts", RetryPolicy: fastRetry()})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.InsertSaleFact(context.Background(), types.SaleFactRow{SaleID: "a"}); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if len(inserter.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(inserter.calls))
	}
}

func TestWriterDoesNotRetryPermanentErrors(t *testing.T) {
	t.Parallel()

	inserter := &fakeInserter{errs: []error{
		&googleapi.Error{Code: http.StatusBadRequest},
	}}
	w, err := newWithInserter(inserter, Config{SaleFactsTable: "sale_facts", RetryPolicy: fastRetry()})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.InsertSaleFact(context.Background(), types.SaleFactRow{SaleID: "a"}); err == nil {
		t.Fatalf("expected permanent error")
	}
	if len(inserter.calls) != 1 {
		t.Fatalf("expected single attempt, got %d", len(inserter.calls))
	}
}

func TestWriterGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	inserter := &fakeInserter{errs: []error{
		status.Error(codes.Unavailable, "down"),
		status.Error(codes.Unavailable, "down"),
		status.Error(codes.Unavailable, "down"),
	}}
	w, err := newWithInserter(inserter, Config{SaleFactsTable: "sale_facts", RetryPolicy: fastRetry()})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.InsertSaleFact(context.Background(), types.SaleFactRow{SaleID: "a"}); err == nil {
		t.Fatalf("expected error after exhausting retries")
	}
	if len(inserter.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(inserter.calls))
	}
}

func TestWriterRequiresTable(t *testing.T) {
	t.Parallel()

	if _, err := newWithInserter(&fakeInserter{}, Config{}); err == nil {
		t.Fatalf("expected error for missing table")
	}
}

func TestIsRetryableBigQueryError(t *testing.T) {
	t.Parallel()

	if isRetryableBigQueryError(nil) {
		t.Fatalf("nil should not be retryable")
	}
	if isRetryableBigQueryError(errors.New("plain")) {
		t.Fatalf("plain errors should not be retryable")
	}
	if !isRetryableBigQueryError(&googleapi.Error{Code: http.StatusTooManyRequests}) {
		t.Fatalf("429 should be retryable")
	}
	if !isRetryableBigQueryError(status.Error(codes.ResourceExhausted, "quota")) {
		t.Fatalf("resource exhausted should be retryable")
	}
	if isRetryableBigQueryError(status.Error(codes.InvalidArgument, "bad row")) {
		t.Fatalf("invalid argument should not be retryable")
	}
}
