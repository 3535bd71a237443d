package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	dto "github.com/pennypilot/auth/internal/http/dto/auth"
	httperrors "github.com/pennypilot/auth/internal/http/errors"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/http/transport"
	"github.com/pennypilot/auth/internal/observability/logger"
)

// RefreshController handles POST /auth/refresh
type RefreshController struct {
	service    svc.RefreshService
	selector   *transport.Selector
	refreshTTL time.Duration
}

// NewRefreshController creates a new controller for refresh.
func NewRefreshController(service svc.RefreshService, selector *transport.Selector, refreshTTL time.Duration) *RefreshController {
	return &RefreshController{service: service, selector: selector, refreshTTL: refreshTTL}
}

// Refresh handles POST /auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	// Body vacío es válido: clientes web mandan el token solo por cookie.
	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	raw := c.selector.Extract(r, req.RefreshToken)

	result, err := c.service.Refresh(ctx, raw)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeRefreshError(w, c.selector.ForRequest(r), err)
		return
	}

	resp := pairResponse(w, c.selector.ForRequest(r), result, c.refreshTTL, false)
	writeJSON(w, http.StatusOK, resp)
}

func writeRefreshError(w http.ResponseWriter, carrier transport.Carrier, err error) {
	switch {
	case errors.Is(err, svc.ErrRefreshMissing):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("refresh token is required"))

	case errors.Is(err, svc.ErrRefreshInvalid):
		// La cookie guarda un token que ya no sirve; limpiarla evita que el
		// cliente web reintente en loop con el mismo valor.
		carrier.Clear(w)
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid refresh token"))

	default:
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
