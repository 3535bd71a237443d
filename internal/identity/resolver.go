// Package identity materializa perfiles verificados como cuentas locales.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/provider"
	"github.com/pennypilot/auth/internal/store/core"
)

var ErrMissingEmail = errors.New("profile has no email")

// Resolver encuentra o crea el User local para un Profile verificado,
// vinculando la identidad del proveedor. La transacción vive en el store; acá
// va la normalización y el reintento cuando otro llamador gana la carrera
// (doble tap, request reintentado).
type Resolver struct {
	store core.Store
}

func NewResolver(store core.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve retorna el user vinculado al perfil, creándolo si hace falta.
// created reporta si se creó un User nuevo.
func (r *Resolver) Resolve(ctx context.Context, name provider.Name, p *provider.Profile) (*core.User, bool, error) {
	if p.Email == "" {
		return nil, false, ErrMissingEmail
	}

	in := core.ResolveIdentityInput{
		Provider:       string(name),
		ProviderUserID: p.ProviderUserID,
		Email:          strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName:      p.FirstName,
		LastName:       p.LastName,
	}

	// Un ErrConflict significa que otro llamador insertó el mismo vínculo o
	// email entre nuestra lectura y nuestra escritura: la constraint única es
	// la red de seguridad, y la respuesta correcta es re-leer, no fallar.
	const attempts = 2
	var lastErr error
	for i := 0; i < attempts; i++ {
		u, created, err := r.store.ResolveIdentity(ctx, in)
		if err == nil {
			if created {
				logger.From(ctx).Info("user created from social login",
					logger.Layer("service"),
					logger.Component("identity.resolver"),
					logger.Provider(in.Provider),
					logger.UserID(u.ID),
				)
			}
			return u, created, nil
		}
		if !errors.Is(err, core.ErrConflict) {
			return nil, false, err
		}
		lastErr = err
	}
	return nil, false, fmt.Errorf("identity resolution lost race twice: %w", lastErr)
}
