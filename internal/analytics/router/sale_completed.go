package router

import (
	"context"
	"encoding/json"
	"fmt"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"

	"github.com/inventiapp/stocktrack-backend/internal/analytics"
	"github.com/inventiapp/stocktrack-backend/internal/analytics/types"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	outboxpayloads "github.com/inventiapp/stocktrack-backend/pkg/outbox/payloads"
)

var centsFactor = decimal.NewFromInt(100)

type saleCompletedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newSaleCompletedHandler(writer Writer, logg *logger.Logger) Handler {
	return &saleCompletedHandler{writer: writer, logg: logg}
}

func (h *saleCompletedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.SaleCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", payload)
	}

	units := 0
	for _, line := range event.LineItems {
		units += line.Quantity
	}

	items, err := encodeItems(event.LineItems)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}

	row := types.SaleFactRow{
		EventID:     envelope.EventID,
		SaleID:      event.SaleID.String(),
		StaffUserID: event.StaffUserID.String(),
		OccurredAt:  analytics.SaleTimestamp(event.CompletedAt, envelope.OccurredAt),
		TotalCents:  toCents(event.TotalAmount),
		ItemCount:   int64(len(event.LineItems)),
		UnitsSold:   int64(units),
		Items:       items,
		Payload:     rawJSON(envelope.Payload),
	}

	if err := h.writer.InsertSaleFact(ctx, row); err != nil {
		return fmt.Errorf("insert sale fact: %w", err)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"sale_id":     row.SaleID,
		"total_cents": row.TotalCents,
	})
	h.logg.Info(logCtx, "sale fact written")
	return nil
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(centsFactor).Round(0).IntPart()
}

func encodeItems(lines []outboxpayloads.SaleLineFact) (cbigquery.NullJSON, error) {
	if len(lines) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	type itemFact struct {
		ProductID      string `json:"product_id"`
		Quantity       int    `json:"quantity"`
		UnitPriceCents int64  `json:"unit_price_cents"`
		LineTotalCents int64  `json:"line_total_cents"`
	}
	items := make([]itemFact, 0, len(lines))
	for _, line := range lines {
		items = append(items, itemFact{
			ProductID:      line.ProductID.String(),
			Quantity:       line.Quantity,
			UnitPriceCents: toCents(line.UnitPrice),
			LineTotalCents: toCents(line.TotalPrice),
		})
	}
	marshaled, err := json.Marshal(items)
	if err != nil {
		return cbigquery.NullJSON{}, err
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(marshaled)}, nil
}

func rawJSON(raw json.RawMessage) cbigquery.NullJSON {
	if len(raw) == 0 {
		return cbigquery.NullJSON{}
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}
}
