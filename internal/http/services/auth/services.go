package auth

import (
	"github.com/pennypilot/auth/internal/identity"
	"github.com/pennypilot/auth/internal/provider"
	"github.com/pennypilot/auth/internal/session"
	core "github.com/pennypilot/auth/internal/store/core"
)

// Services agrupa todos los servicios de autenticación.
type Services struct {
	SocialLogin SocialLoginService
	Refresh     RefreshService
	Logout      LogoutService
	Profile     ProfileService
}

// Deps contiene las dependencias compartidas de los servicios.
type Deps struct {
	Store    core.Store
	Registry *provider.Registry
	Resolver *identity.Resolver
	Ledger   *session.Ledger
}

// NewServices arma el set completo de servicios.
func NewServices(deps Deps) *Services {
	return &Services{
		SocialLogin: NewSocialLoginService(SocialLoginDeps{
			Registry: deps.Registry,
			Resolver: deps.Resolver,
			Ledger:   deps.Ledger,
		}),
		Refresh: NewRefreshService(RefreshDeps{Ledger: deps.Ledger}),
		Logout:  NewLogoutService(LogoutDeps{Ledger: deps.Ledger}),
		Profile: NewProfileService(ProfileDeps{Store: deps.Store}),
	}
}
