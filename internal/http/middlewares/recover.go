package middlewares

import (
	"net/http"

	httperrors "github.com/pennypilot/auth/internal/http/errors"
	"github.com/pennypilot/auth/internal/observability/logger"
)

// Recover evita que un panic tire el proceso; responde 500 y loguea el stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.From(r.Context()).Error("panic recovered",
					logger.Layer("middleware"),
					logger.Path(r.URL.Path),
					logger.String("panic", toString(rec)),
				)
				httperrors.WriteError(w, httperrors.ErrInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return "unknown panic"
}
