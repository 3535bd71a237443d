package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pennypilot/auth/internal/metrics"
	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/session"
)

// RefreshService defines the refresh rotation operation.
type RefreshService interface {
	// Refresh rotates a refresh token: the presented token is consumed and a
	// brand new pair is returned.
	Refresh(ctx context.Context, rawToken string) (*LoginResult, error)
}

// RefreshDeps contains dependencies for the refresh service.
type RefreshDeps struct {
	Ledger *session.Ledger
}

type refreshService struct {
	deps RefreshDeps
}

// NewRefreshService creates a new refresh service.
func NewRefreshService(deps RefreshDeps) RefreshService {
	return &refreshService{deps: deps}
}

// Refresh errors. A todos los fallos de token les responde el mismo error
// opaco: distinguir "no existe" de "revocado" le regala información a un
// atacante que está probando tokens.
var (
	ErrRefreshMissing = fmt.Errorf("missing refresh token")
	ErrRefreshInvalid = fmt.Errorf("invalid refresh token")
	ErrRefreshFailed  = fmt.Errorf("refresh failed")
)

func (s *refreshService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.refresh"),
		logger.Op("Refresh"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrRefreshMissing
	}

	pair, user, err := s.deps.Ledger.Rotate(ctx, rawToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenNotFound):
			metrics.RefreshTotal.WithLabelValues("not_found").Inc()
			return nil, ErrRefreshInvalid
		case errors.Is(err, session.ErrTokenExpired):
			metrics.RefreshTotal.WithLabelValues("expired").Inc()
			return nil, ErrRefreshInvalid
		case errors.Is(err, session.ErrTokenRevoked):
			// El ledger ya dejó el rastro de reuso; acá solo el resultado.
			metrics.RefreshTotal.WithLabelValues("revoked").Inc()
			return nil, ErrRefreshInvalid
		default:
			log.Error("rotation failed", logger.Err(err))
			metrics.RefreshTotal.WithLabelValues("error").Inc()
			return nil, ErrRefreshFailed
		}
	}

	metrics.RefreshTotal.WithLabelValues("success").Inc()
	log.Debug("refresh successful", logger.UserID(user.ID))
	return &LoginResult{Pair: pair, User: user}, nil
}
