package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
)

// BatchDeduction records how much one batch contributed to a depletion.
type BatchDeduction struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Taken     int       `json:"taken"`
	Remaining int       `json:"remaining"`
}

// DepletionResult describes a completed first-expires-first-out depletion.
type DepletionResult struct {
	ProductID  uuid.UUID        `json:"product_id"`
	Requested  int              `json:"requested"`
	Deductions []BatchDeduction `json:"deductions"`
}

// Deplete walks the product's batches in first-expires-first-out order and
// subtracts the requested quantity inside the caller's transaction. Batches
// that expire sooner are drained first; ties break on reception date, then
// batch id, so repeated runs against the same rows take the same path.
// Batches already at zero are skipped but never deleted.
//
// If the product's total on-hand stock cannot cover the request the error
// carries CodeInsufficientStock and the shortfall; the caller's transaction
// rollback undoes any partial writes made while draining.
func Deplete(ctx context.Context, tx *gorm.DB, productID uuid.UUID, requested int) (*DepletionResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if requested <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "requested quantity must be positive").
			WithDetails(map[string]any{"requested": requested})
	}

	repo := NewRepository(tx)
	batches, err := repo.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading batches for depletion")
	}

	result := &DepletionResult{
		ProductID: productID,
		Requested: requested,
	}
	remaining := requested
	for i := range batches {
		if remaining == 0 {
			break
		}
		batch := &batches[i]
		if batch.Quantity <= 0 {
			continue
		}
		take := batch.Quantity
		if take > remaining {
			take = remaining
		}
		newQuantity := batch.Quantity - take
		if err := repo.UpdateQuantity(ctx, batch.ID, newQuantity); err != nil {
			if typed := pkgerrors.As(err); typed != nil {
				return nil, typed
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating batch quantity")
		}
		remaining -= take
		result.Deductions = append(result.Deductions, BatchDeduction{
			BatchID:   batch.ID,
			Taken:     take,
			Remaining: newQuantity,
		})
	}

	if remaining > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for product").
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  requested,
				"available":  requested - remaining,
				"shortfall":  remaining,
			})
	}
	return result, nil
}
