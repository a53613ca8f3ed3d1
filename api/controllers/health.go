package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/handyhub/handyhub-backend/api/responses"
	"github.com/handyhub/handyhub-backend/pkg/config"
	pkgerrors "github.com/handyhub/handyhub-backend/pkg/errors"
	"github.com/handyhub/handyhub-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

// Pinger is the health-check surface a dependency must expose.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HandyHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the data dependencies the API cannot serve without.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-HandyHub-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
