package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/inventiapp/stocktrack-backend/api/middleware"
	"github.com/inventiapp/stocktrack-backend/api/responses"
	"github.com/inventiapp/stocktrack-backend/api/validators"
	"github.com/inventiapp/stocktrack-backend/internal/inventory"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/outbox"
)

type createBatchRequest struct {
	ProductID      string     `json:"product_id" validate:"required,uuid"`
	Quantity       int        `json:"quantity" validate:"required,min=1"`
	ExpirationDate time.Time  `json:"expiration_date" validate:"required"`
	ReceptionDate  *time.Time `json:"reception_date,omitempty"`
}

type updateBatchRequest struct {
	Quantity       *int       `json:"quantity,omitempty" validate:"omitempty,min=0"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	ReceptionDate  *time.Time `json:"reception_date,omitempty"`
}

type depleteStockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func requestActor(r *http.Request) (*outbox.ActorRef, error) {
	userID, err := actorUUID(r)
	if err != nil {
		return nil, err
	}
	return &outbox.ActorRef{
		UserID: userID,
		Role:   middleware.RoleFromContext(r.Context()),
	}, nil
}

// CreateBatch registers a received stock batch for a product.
func CreateBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		var body createBatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := uuid.Parse(body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		input := inventory.CreateBatchInput{
			ProductID:      productID,
			Quantity:       body.Quantity,
			ExpirationDate: body.ExpirationDate,
		}
		if body.ReceptionDate != nil {
			input.ReceptionDate = *body.ReceptionDate
		}

		batch, err := svc.CreateBatch(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, batch)
	}
}

// ListBatches returns the batches of a product ordered by expiration.
func ListBatches(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		batches, err := svc.ListBatches(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batches)
	}
}

// GetBatch fetches one batch by id.
func GetBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := pathUUID(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		batch, err := svc.GetBatch(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// UpdateBatch corrects quantity or dates of a batch.
func UpdateBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := pathUUID(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateBatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		batch, err := svc.UpdateBatch(r.Context(), id, inventory.UpdateBatchInput{
			Quantity:       body.Quantity,
			ExpirationDate: body.ExpirationDate,
			ReceptionDate:  body.ReceptionDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// DeleteBatch removes an empty batch record.
func DeleteBatch(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := pathUUID(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteBatch(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DepleteStock subtracts stock from a product's batches, oldest expiration first.
func DepleteStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := requestActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body depleteStockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.DepleteStock(r.Context(), actor, productID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductStock reports the summed on-hand quantity for a product.
func ProductStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		productID, err := pathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stock, err := svc.ProductStock(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"product_id": productID, "current_stock": stock})
	}
}
