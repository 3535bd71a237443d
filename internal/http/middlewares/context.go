package middlewares

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/observability/logger"
)

type ctxKey int

const (
	principalKey ctxKey = iota
)

// WithPrincipal guarda el principal autenticado en el contexto.
func WithPrincipal(ctx context.Context, p *jwt.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal devuelve el principal o nil si el request es anónimo.
func GetPrincipal(ctx context.Context) *jwt.Principal {
	p, _ := ctx.Value(principalKey).(*jwt.Principal)
	return p
}

// RequestLogger inyecta en el contexto un logger con el request id de chi,
// para que logger.From(ctx) salga correlacionado en todas las capas.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := logger.L()
		if reqID := chimw.GetReqID(ctx); reqID != "" {
			l = l.With(logger.RequestID(reqID))
		}
		next.ServeHTTP(w, r.WithContext(logger.ToContext(ctx, l)))
	})
}
