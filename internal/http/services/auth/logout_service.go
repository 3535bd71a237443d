package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/session"
)

// LogoutService defines operations for logout.
type LogoutService interface {
	// Logout revokes a single refresh token (idempotent).
	Logout(ctx context.Context, rawToken string) error
	// LogoutAll revokes every active refresh token for a user.
	LogoutAll(ctx context.Context, userID string) (int64, error)
}

// LogoutDeps contains dependencies for the logout service.
type LogoutDeps struct {
	Ledger *session.Ledger
}

type logoutService struct {
	deps LogoutDeps
}

// NewLogoutService creates a new logout service.
func NewLogoutService(deps LogoutDeps) LogoutService {
	return &logoutService{deps: deps}
}

// Logout errors
var (
	ErrLogoutFailed = fmt.Errorf("revocation failed")
)

func (s *logoutService) Logout(ctx context.Context, rawToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("Logout"),
	)

	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		// Sin token no hay nada que revocar; logout sigue siendo exitoso.
		log.Debug("logout without token, nothing to revoke")
		return nil
	}

	if err := s.deps.Ledger.Revoke(ctx, rawToken); err != nil {
		log.Warn("failed to revoke refresh token", logger.Err(err))
		return ErrLogoutFailed
	}

	log.Info("logout successful")
	return nil
}

func (s *logoutService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.logout"),
		logger.Op("LogoutAll"),
		logger.UserID(userID),
	)

	count, err := s.deps.Ledger.RevokeAll(ctx, userID)
	if err != nil {
		log.Error("mass revocation failed", logger.Err(err))
		return 0, ErrLogoutFailed
	}

	log.Info("logout-all successful", logger.Int("revoked_count", int(count)))
	return count, nil
}
