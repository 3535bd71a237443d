// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	authctrl "github.com/pennypilot/auth/internal/http/controllers/auth"
	healthctrl "github.com/pennypilot/auth/internal/http/controllers/health"
	"github.com/pennypilot/auth/internal/http/middlewares"
	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/metrics"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Auth   *authctrl.Controllers
	Health *healthctrl.Controller
	Issuer *jwt.Issuer
}

// New construye el router completo.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middlewares.RequestLogger)
	r.Use(middlewares.Recover)
	r.Use(middlewares.Metrics)
	r.Use(middlewares.SecurityHeaders)

	// Operacional, sin auth y sin no-store.
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/auth", func(r chi.Router) {
		// Todo /auth devuelve tokens o estado de sesión.
		r.Use(middlewares.NoStore)

		r.Post("/social-login", deps.Auth.SocialLogin.Login)
		r.Post("/refresh", deps.Auth.Refresh.Refresh)
		r.Post("/logout", deps.Auth.Logout.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middlewares.RequireAuth(deps.Issuer))
			r.Post("/logout-all", deps.Auth.Logout.LogoutAll)
			r.Get("/me", deps.Auth.Me.Me)
		})
	})

	return r
}
