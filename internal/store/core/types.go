package core

import "time"

// User es la cuenta local. Se crea en el primer login social exitoso y se
// identifica después por email o por vínculo de proveedor.
type User struct {
	ID        string
	Email     string
	FirstName *string
	LastName  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProviderLink vincula una identidad de un proveedor externo (google, apple,
// facebook) con un User local. Único por (provider, provider_user_id).
type ProviderLink struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// RefreshToken es la fila persistida de un refresh token. El valor crudo
// nunca se guarda; solo su hash SHA-256 en hex.
type RefreshToken struct {
	ID          string
	UserID      string
	TokenHash   string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RotatedFrom *string
	CreatedAt   time.Time
}

// Active reporta si el token todavía puede validarse en el instante dado.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
