package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/pennypilot/auth/internal/http/errors"
	"github.com/pennypilot/auth/internal/http/middlewares"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/observability/logger"
)

// MeController handles GET /auth/me
type MeController struct {
	service svc.ProfileService
}

// NewMeController creates a new controller for the profile endpoint.
func NewMeController(service svc.ProfileService) *MeController {
	return &MeController{service: service}
}

// Me handles GET /auth/me
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	principal := middlewares.GetPrincipal(ctx)
	if principal == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	user, err := c.service.Me(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, svc.ErrUserNotFound) {
			// El JWT sobrevivió al usuario; tratarlo como sesión inválida.
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("account no longer exists"))
			return
		}
		log.Error("profile lookup failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternal)
		return
	}

	writeJSON(w, http.StatusOK, userInfo(user, false))
}
