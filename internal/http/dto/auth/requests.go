// Package auth define los contratos JSON de los endpoints de sesión.
package auth

import "strings"

// SocialLoginRequest es el cuerpo de POST /auth/social-login. La credencial
// puede venir bajo credential o bajo los alias token, idToken (Google/Apple)
// o accessToken (Facebook); los datos de perfil pueden venir al tope del
// cuerpo o agrupados bajo hints.
type SocialLoginRequest struct {
	Provider string `json:"provider"`
	// Credential es el ID token (Google/Apple) o el access token (Facebook).
	Credential  string `json:"credential"`
	Token       string `json:"token"`
	IDToken     string `json:"idToken"`
	AccessToken string `json:"accessToken"`

	// Datos de perfil que solo el cliente conoce. Apple manda email y nombre
	// únicamente en la primera autorización, así que el cliente los reenvía
	// acá.
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Hints     *LoginHints `json:"hints"`
}

// CredentialValue devuelve la credencial bajo el primer alias presente, en el
// orden credential, token, idToken, accessToken.
func (r *SocialLoginRequest) CredentialValue() string {
	for _, v := range []string{r.Credential, r.Token, r.IDToken, r.AccessToken} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// MergedHints aplana los campos de perfil del tope del cuerpo con los de
// hints; ante duplicados gana hints. Retorna nil si no vino ninguno.
func (r *SocialLoginRequest) MergedHints() *LoginHints {
	merged := LoginHints{Email: r.Email, FirstName: r.FirstName, LastName: r.LastName}
	if r.Hints != nil {
		if r.Hints.Email != "" {
			merged.Email = r.Hints.Email
		}
		if r.Hints.FirstName != "" {
			merged.FirstName = r.Hints.FirstName
		}
		if r.Hints.LastName != "" {
			merged.LastName = r.Hints.LastName
		}
	}
	if merged == (LoginHints{}) {
		return nil
	}
	return &merged
}

// LoginHints complementa el perfil cuando el proveedor no lo trae completo.
type LoginHints struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// RefreshRequest es el cuerpo de POST /auth/refresh. RefreshToken es opcional:
// los clientes web lo mandan por cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// LogoutRequest es el cuerpo de POST /auth/logout, mismo transporte dual que
// el refresh.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}
