package auth

import "time"

// TokenPairResponse es la respuesta de login y refresh. RefreshToken va vacío
// (omitido) cuando el cliente es web y lo recibe por cookie.
type TokenPairResponse struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
	RefreshToken    string    `json:"refreshToken,omitempty"`
	User            *UserInfo `json:"user,omitempty"`
}

// UserInfo es la vista pública del usuario.
type UserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	IsNew     bool   `json:"isNew,omitempty"`
}
