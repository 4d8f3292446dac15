package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/inventiapp/stocktrack-backend/pkg/db/models"
)

// BatchDTO is the batch payload returned to clients.
type BatchDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	ExpirationDate time.Time `json:"expiration_date"`
	ReceptionDate  time.Time `json:"reception_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateBatchInput holds the validated payload to register a received batch.
type CreateBatchInput struct {
	ProductID      uuid.UUID
	Quantity       int
	ExpirationDate time.Time
	ReceptionDate  time.Time
}

// UpdateBatchInput holds optional mutation values for a batch.
type UpdateBatchInput struct {
	Quantity       *int
	ExpirationDate *time.Time
	ReceptionDate  *time.Time
}

func toBatchDTO(batch *models.Batch) *BatchDTO {
	if batch == nil {
		return nil
	}
	return &BatchDTO{
		ID:             batch.ID,
		ProductID:      batch.ProductID,
		Quantity:       batch.Quantity,
		ExpirationDate: batch.ExpirationDate,
		ReceptionDate:  batch.ReceptionDate,
		CreatedAt:      batch.CreatedAt,
		UpdatedAt:      batch.UpdatedAt,
	}
}

func toBatchDTOs(batches []models.Batch) []BatchDTO {
	out := make([]BatchDTO, 0, len(batches))
	for i := range batches {
		out = append(out, *toBatchDTO(&batches[i]))
	}
	return out
}
