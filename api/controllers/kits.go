package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/inventiapp/stocktrack-backend/api/responses"
	"github.com/inventiapp/stocktrack-backend/api/validators"
	"github.com/inventiapp/stocktrack-backend/internal/kits"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
)

type kitItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Price     string `json:"price" validate:"required"`
}

type createKitRequest struct {
	Name  string           `json:"name" validate:"required"`
	Items []kitItemRequest `json:"items" validate:"required,min=1,dive"`
}

type updateKitRequest struct {
	Name     *string           `json:"name,omitempty"`
	IsActive *bool             `json:"is_active,omitempty"`
	Items    *[]kitItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

func toKitItemInputs(items []kitItemRequest) ([]kits.KitItemInput, error) {
	out := make([]kits.KitItemInput, 0, len(items))
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		price, err := parsePrice(item.Price)
		if err != nil {
			return nil, err
		}
		out = append(out, kits.KitItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return out, nil
}

func CreateKit(svc kits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kit service unavailable"))
			return
		}
		var body createKitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := toKitItemInputs(body.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kit, err := svc.CreateKit(r.Context(), kits.CreateKitInput{Name: body.Name, Items: items})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, kit)
	}
}

func ListKits(svc kits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kit service unavailable"))
			return
		}
		includeInactive, err := queryBool(r, "includeInactive")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListKits(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetKit(svc kits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kit service unavailable"))
			return
		}
		id, err := pathUUID(r, "kitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kit, err := svc.GetKit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, kit)
	}
}

func UpdateKit(svc kits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kit service unavailable"))
			return
		}
		id, err := pathUUID(r, "kitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateKitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := kits.UpdateKitInput{Name: body.Name, IsActive: body.IsActive}
		if body.Items != nil {
			items, err := toKitItemInputs(*body.Items)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = &items
		}
		kit, err := svc.UpdateKit(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, kit)
	}
}

func DeactivateKit(svc kits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "kit service unavailable"))
			return
		}
		id, err := pathUUID(r, "kitId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeactivateKit(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}
