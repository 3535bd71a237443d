package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/pennypilot/auth/internal/observability/logger"
	core "github.com/pennypilot/auth/internal/store/core"
)

// ProfileService exposes the authenticated user's own record.
type ProfileService interface {
	Me(ctx context.Context, userID string) (*core.User, error)
}

// ProfileDeps contains dependencies for the profile service.
type ProfileDeps struct {
	Store core.Store
}

type profileService struct {
	deps ProfileDeps
}

// NewProfileService creates a new profile service.
func NewProfileService(deps ProfileDeps) ProfileService {
	return &profileService{deps: deps}
}

// Profile errors
var (
	ErrUserNotFound = fmt.Errorf("user not found")
	ErrProfileLoad  = fmt.Errorf("failed to load profile")
)

func (s *profileService) Me(ctx context.Context, userID string) (*core.User, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("Me"),
		logger.UserID(userID),
	)

	user, err := s.deps.Store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Token válido pero usuario borrado: sesión huérfana.
			log.Warn("authenticated user no longer exists")
			return nil, ErrUserNotFound
		}
		log.Error("profile load failed", logger.Err(err))
		return nil, ErrProfileLoad
	}
	return user, nil
}
