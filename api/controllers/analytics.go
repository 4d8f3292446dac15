package controllers

import (
	"net/http"
	"time"

	"github.com/inventiapp/stocktrack-backend/api/responses"
	"github.com/inventiapp/stocktrack-backend/internal/analytics"
	"github.com/inventiapp/stocktrack-backend/internal/analytics/types"
	pkgerrors "github.com/inventiapp/stocktrack-backend/pkg/errors"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
)

// RevenueAnalytics serves revenue KPIs computed from the warehouse sale facts.
func RevenueAnalytics(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		now := time.Now().UTC()
		req := types.RevenueQueryRequest{Start: now.AddDate(0, 0, -30), End: now}
		if value, err := queryTime(r, "start"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if value != nil {
			req.Start = *value
		}
		if value, err := queryTime(r, "end"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if value != nil {
			req.End = *value
		}

		result, err := svc.Query(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
