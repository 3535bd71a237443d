package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dto "github.com/pennypilot/auth/internal/http/dto/auth"
	"github.com/pennypilot/auth/internal/identity"
	"github.com/pennypilot/auth/internal/metrics"
	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/provider"
	"github.com/pennypilot/auth/internal/session"
	core "github.com/pennypilot/auth/internal/store/core"
)

// SocialLoginService defines the social login operation.
type SocialLoginService interface {
	// Login verifies the provider credential, resolves the local user and
	// issues a fresh token pair.
	Login(ctx context.Context, in dto.SocialLoginRequest) (*LoginResult, error)
}

// LoginResult is the internal outcome of a successful login or refresh. The
// controller decides how the refresh token travels.
type LoginResult struct {
	Pair  *session.Pair
	User  *core.User
	IsNew bool
}

// SocialLoginDeps contains dependencies for the social login service.
type SocialLoginDeps struct {
	Registry *provider.Registry
	Resolver *identity.Resolver
	Ledger   *session.Ledger
}

type socialLoginService struct {
	deps SocialLoginDeps
}

// NewSocialLoginService creates a new social login service.
func NewSocialLoginService(deps SocialLoginDeps) SocialLoginService {
	return &socialLoginService{deps: deps}
}

// Social login errors
var (
	ErrMissingFields       = fmt.Errorf("missing required fields")
	ErrUnsupportedProvider = fmt.Errorf("unsupported provider")
	ErrInvalidCredential   = fmt.Errorf("invalid provider credential")
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")
	ErrMissingEmail        = fmt.Errorf("provider did not supply an email")
	ErrTokenIssueFailed    = fmt.Errorf("failed to issue token pair")
)

func (s *socialLoginService) Login(ctx context.Context, in dto.SocialLoginRequest) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.social_login"),
		logger.Op("Login"),
	)

	// Paso 0: normalización
	in.Provider = strings.TrimSpace(strings.ToLower(in.Provider))
	credential := in.CredentialValue()

	if in.Provider == "" || credential == "" {
		return nil, ErrMissingFields
	}

	name, err := provider.ParseName(in.Provider)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(in.Provider, "unsupported").Inc()
		return nil, ErrUnsupportedProvider
	}

	log = log.With(logger.Provider(string(name)))

	var hints *provider.Hints
	if h := in.MergedHints(); h != nil {
		hints = &provider.Hints{Email: strings.TrimSpace(h.Email)}
		if v := strings.TrimSpace(h.FirstName); v != "" {
			hints.FirstName = &v
		}
		if v := strings.TrimSpace(h.LastName); v != "" {
			hints.LastName = &v
		}
	}

	// Paso 1: verificar la credencial contra el proveedor
	profile, err := s.deps.Registry.Verify(ctx, name, credential, hints)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrProviderUnavailable):
			log.Warn("provider unreachable", logger.Err(err))
			metrics.LoginsTotal.WithLabelValues(string(name), "provider_unavailable").Inc()
			return nil, ErrProviderUnavailable
		case errors.Is(err, provider.ErrMissingEmail):
			log.Debug("credential valid but no email available")
			metrics.LoginsTotal.WithLabelValues(string(name), "missing_email").Inc()
			return nil, ErrMissingEmail
		default:
			log.Debug("credential rejected", logger.Err(err))
			metrics.LoginsTotal.WithLabelValues(string(name), "invalid_credential").Inc()
			return nil, ErrInvalidCredential
		}
	}

	// Paso 2: resolver la identidad local (find-or-create)
	user, isNew, err := s.deps.Resolver.Resolve(ctx, name, profile)
	if err != nil {
		if errors.Is(err, identity.ErrMissingEmail) {
			metrics.LoginsTotal.WithLabelValues(string(name), "missing_email").Inc()
			return nil, ErrMissingEmail
		}
		log.Error("identity resolution failed", logger.Err(err))
		metrics.LoginsTotal.WithLabelValues(string(name), "error").Inc()
		return nil, ErrTokenIssueFailed
	}

	log = log.With(logger.UserID(user.ID))

	// Paso 3: emitir el par de tokens
	pair, err := s.deps.Ledger.IssuePair(ctx, user.ID, user.Email)
	if err != nil {
		log.Error("token pair issuance failed", logger.Err(err))
		metrics.LoginsTotal.WithLabelValues(string(name), "error").Inc()
		return nil, ErrTokenIssueFailed
	}

	metrics.LoginsTotal.WithLabelValues(string(name), "success").Inc()
	log.Info("social login successful", logger.Bool("is_new", isNew))
	return &LoginResult{Pair: pair, User: user, IsNew: isNew}, nil
}
