// Package health expone los endpoints de liveness y readiness.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pennypilot/auth/internal/observability/logger"
	core "github.com/pennypilot/auth/internal/store/core"
)

const pingTimeout = 2 * time.Second

// Controller responde healthz/readyz.
type Controller struct {
	store core.Store
}

func NewController(store core.Store) *Controller {
	return &Controller{store: store}
}

// Healthz reporta que el proceso está vivo. No toca dependencias.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readyz reporta si el servicio puede atender tráfico (storage accesible).
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := c.store.Ping(ctx); err != nil {
		logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}
