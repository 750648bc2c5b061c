package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/atriumhq/atrium-backend/api/responses"
	"github.com/atriumhq/atrium-backend/pkg/config"
	pkgerrors "github.com/atriumhq/atrium-backend/pkg/errors"
	"github.com/atriumhq/atrium-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Atrium-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing dependency and reports per-dependency
// status. Optional dependencies (nil pingers) are skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP, gcsP pinger) http.HandlerFunc {
	deps := []struct {
		name string
		ping pinger
	}{
		{"db", dbP},
		{"redis", redisP},
		{"gcs", gcsP},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		w.Header().Set("X-Atrium-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for _, dep := range deps {
			if dep.ping == nil {
				checks[dep.name] = "skipped"
				continue
			}
			if err := dep.ping.Ping(ctx); err != nil {
				healthy = false
				checks[dep.name] = "unavailable"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", dep.name), "readiness check failed", err)
				}
				continue
			}
			checks[dep.name] = "ok"
		}

		if !healthy {
			err := pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").
				WithDetails(checks)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
