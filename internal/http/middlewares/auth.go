package middlewares

import (
	"net/http"
	"strings"

	httperrors "github.com/pennypilot/auth/internal/http/errors"
	"github.com/pennypilot/auth/internal/jwt"
)

// bearerToken extrae el token del header Authorization. Devuelve "" si el
// header falta y un bool de "malformado" para distinguir los dos 401.
func bearerToken(r *http.Request) (token string, present, malformed bool) {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" {
		return "", false, false
	}
	if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return "", true, true
	}
	raw := strings.TrimSpace(ah[len("bearer "):])
	if raw == "" {
		return "", true, true
	}
	return raw, true, false
}

// RequireAuth valida Authorization: Bearer <JWT> y guarda el principal en el
// contexto. Sin token o con token inválido responde 401.
func RequireAuth(issuer *jwt.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, present, malformed := bearerToken(r)
			if !present {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			if malformed {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="malformed authorization header"`)
				httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("malformed authorization header"))
				return
			}

			principal, err := issuer.ParseAccess(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth intenta validar el token pero NUNCA falla el request. Para
// endpoints con comportamiento distinto entre anónimos y autenticados.
func OptionalAuth(issuer *jwt.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, present, malformed := bearerToken(r)
			if !present || malformed {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := issuer.ParseAccess(raw)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}
