package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/inventiapp/stocktrack-backend/api/responses"
	"github.com/inventiapp/stocktrack-backend/pkg/bigquery"
	"github.com/inventiapp/stocktrack-backend/pkg/config"
	"github.com/inventiapp/stocktrack-backend/pkg/db"
	"github.com/inventiapp/stocktrack-backend/pkg/logger"
	"github.com/inventiapp/stocktrack-backend/pkg/redis"
)

const readinessTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StockTrack-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each backing dependency before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger, bqP bigquery.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-StockTrack-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true

		check := func(name string, ping func(context.Context) error) {
			if ping == nil {
				checks[name] = "skipped"
				return
			}
			if err := ping(ctx); err != nil {
				healthy = false
				checks[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				}
				return
			}
			checks[name] = "up"
		}

		if dbP != nil {
			check("postgres", dbP.Ping)
		}
		if redisP != nil {
			check("redis", redisP.Ping)
		}
		if bqP != nil {
			check("bigquery", bqP.Ping)
		}

		status := map[string]any{"status": "ready", "checks": checks}
		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
