package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	dto "github.com/pennypilot/auth/internal/http/dto/auth"
	httperrors "github.com/pennypilot/auth/internal/http/errors"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/http/transport"
	"github.com/pennypilot/auth/internal/observability/logger"
)

// SocialLoginController handles POST /auth/social-login
type SocialLoginController struct {
	service    svc.SocialLoginService
	selector   *transport.Selector
	refreshTTL time.Duration
}

// NewSocialLoginController creates a new controller for social login.
func NewSocialLoginController(service svc.SocialLoginService, selector *transport.Selector, refreshTTL time.Duration) *SocialLoginController {
	return &SocialLoginController{service: service, selector: selector, refreshTTL: refreshTTL}
}

// Login handles POST /auth/social-login
func (c *SocialLoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SocialLoginController.Login"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	var req dto.SocialLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	result, err := c.service.Login(ctx, req)
	if err != nil {
		log.Debug("social login failed", logger.Err(err))
		writeLoginError(w, err)
		return
	}

	resp := pairResponse(w, c.selector.ForRequest(r), result, c.refreshTTL, true)
	writeJSON(w, http.StatusOK, resp)
}

func writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("provider and credential are required"))

	case errors.Is(err, svc.ErrUnsupportedProvider):
		httperrors.WriteError(w, httperrors.ErrUnsupportedProvider)

	case errors.Is(err, svc.ErrMissingEmail):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("provider did not supply an email"))

	case errors.Is(err, svc.ErrInvalidCredential):
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithDetail("invalid provider credential"))

	case errors.Is(err, svc.ErrProviderUnavailable):
		httperrors.WriteError(w, httperrors.ErrProviderUnavailable)

	default:
		httperrors.WriteError(w, httperrors.ErrInternal)
	}
}
