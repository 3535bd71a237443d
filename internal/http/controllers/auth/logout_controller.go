package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	dto "github.com/pennypilot/auth/internal/http/dto/auth"
	httperrors "github.com/pennypilot/auth/internal/http/errors"
	"github.com/pennypilot/auth/internal/http/middlewares"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/http/transport"
	"github.com/pennypilot/auth/internal/observability/logger"
)

// LogoutController handles POST /auth/logout and POST /auth/logout-all
type LogoutController struct {
	service  svc.LogoutService
	selector *transport.Selector
}

// NewLogoutController creates a new controller for logout.
func NewLogoutController(service svc.LogoutService, selector *transport.Selector) *LogoutController {
	return &LogoutController{service: service, selector: selector}
}

// Logout handles POST /auth/logout. Siempre responde 200: revocar un token
// desconocido o no mandar ninguno sigue siendo un logout exitoso.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	raw := c.selector.Extract(r, req.RefreshToken)

	if err := c.service.Logout(ctx, raw); err != nil {
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
		return
	}

	c.selector.ForRequest(r).Clear(w)
	w.WriteHeader(http.StatusOK)
}

// LogoutAll handles POST /auth/logout-all. Requiere access token válido.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LogoutAll"))

	principal := middlewares.GetPrincipal(ctx)
	if principal == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	if _, err := c.service.LogoutAll(ctx, principal.UserID); err != nil {
		log.Error("logout-all failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
		return
	}

	c.selector.ForRequest(r).Clear(w)
	w.WriteHeader(http.StatusOK)
}
