package core

import (
	"context"
	"time"
)

// CreateRefreshTokenInput describe la fila a insertar al emitir o rotar.
type CreateRefreshTokenInput struct {
	UserID      string
	TokenHash   string
	ExpiresAt   time.Time
	RotatedFrom *string
}

// ResolveIdentityInput es el perfil normalizado que el resolver materializa
// como User + ProviderLink.
type ResolveIdentityInput struct {
	Provider       string
	ProviderUserID string
	Email          string
	FirstName      *string
	LastName       *string
}

// Store es el contrato de persistencia. ResolveIdentity y RotateRefreshToken
// deben ejecutar como una única transacción atómica: son las dos operaciones
// donde llamadores concurrentes compiten por la misma fila.
type Store interface {
	Ping(ctx context.Context) error
	Close()

	// Users. La búsqueda por email vive dentro de ResolveIdentity, que es la
	// única operación que la necesita y debe hacerla dentro de su transacción.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// ResolveIdentity busca el vínculo (provider, provider_user_id); si no
	// existe, vincula por email o crea User + ProviderLink. Una violación de
	// unicidad dentro de la transacción se traduce a ErrConflict para que el
	// resolver re-lea en vez de fallar.
	ResolveIdentity(ctx context.Context, in ResolveIdentityInput) (*User, bool, error)

	// Refresh tokens
	CreateRefreshToken(ctx context.Context, in CreateRefreshTokenInput) (*RefreshToken, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RotateRefreshToken marca revoked_at en la fila vieja y crea la sucesora
	// en una transacción. Si la fila vieja ya estaba revocada (el otro llamador
	// ganó la carrera) retorna ErrRevoked sin crear nada.
	RotateRefreshToken(ctx context.Context, oldID string, in CreateRefreshTokenInput) (*RefreshToken, error)

	// RevokeRefreshToken es idempotente: revocar una fila ya revocada no es error.
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
