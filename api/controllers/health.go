package controllers

import (
	"net/http"
	"time"

	"github.com/thedilution/dilution-backend/api/responses"
	"github.com/thedilution/dilution-backend/pkg/config"
	"github.com/thedilution/dilution-backend/pkg/db"
	"github.com/thedilution/dilution-backend/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dilution-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores so orchestrators only route traffic
// once the database and cache are reachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Dilution-Env", cfg.App.Env)

		status := map[string]string{}
		healthy := true
		for name, pinger := range checks {
			if pinger == nil {
				continue
			}
			ctx, cancel := contextWithTimeout(r, readyCheckTimeout)
			err := pinger.Ping(ctx)
			cancel()
			if err != nil {
				healthy = false
				status[name] = "down"
				if logg != nil {
					logg.Error(r.Context(), "readiness check failed for "+name, err)
				}
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		responses.WriteSuccess(w, status)
	}
}
