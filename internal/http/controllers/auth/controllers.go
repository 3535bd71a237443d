// Package auth contiene los controllers de autenticación.
package auth

import (
	"encoding/json"
	"net/http"
	"time"

	dto "github.com/pennypilot/auth/internal/http/dto/auth"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/http/transport"
	core "github.com/pennypilot/auth/internal/store/core"
)

const contentTypeJSON = "application/json; charset=utf-8"

const maxBodySize = 64 * 1024 // 64KB

// Controllers agrupa todos los controllers del dominio auth.
type Controllers struct {
	SocialLogin *SocialLoginController
	Refresh     *RefreshController
	Logout      *LogoutController
	Me          *MeController
}

// Deps contiene lo que los controllers comparten: el selector de transporte
// del refresh token y su TTL para la cookie.
type Deps struct {
	Services   *svc.Services
	Selector   *transport.Selector
	RefreshTTL time.Duration
}

// NewControllers crea el agregador de controllers auth.
func NewControllers(d Deps) *Controllers {
	return &Controllers{
		SocialLogin: NewSocialLoginController(d.Services.SocialLogin, d.Selector, d.RefreshTTL),
		Refresh:     NewRefreshController(d.Services.Refresh, d.Selector, d.RefreshTTL),
		Logout:      NewLogoutController(d.Services.Logout, d.Selector),
		Me:          NewMeController(d.Services.Profile),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// pairResponse arma la respuesta de tokens respetando el carrier: si el
// refresh viaja por cookie, no se duplica en el body.
func pairResponse(w http.ResponseWriter, carrier transport.Carrier, result *svc.LoginResult, refreshTTL time.Duration, includeUser bool) dto.TokenPairResponse {
	carrier.Deliver(w, result.Pair.RefreshToken, refreshTTL)

	resp := dto.TokenPairResponse{
		AccessToken:     result.Pair.AccessToken,
		AccessExpiresAt: result.Pair.AccessExpiresAt,
	}
	if carrier.IncludeInBody() {
		resp.RefreshToken = result.Pair.RefreshToken
	}
	if includeUser {
		resp.User = userInfo(result.User, result.IsNew)
	}
	return resp
}

func userInfo(u *core.User, isNew bool) *dto.UserInfo {
	info := &dto.UserInfo{ID: u.ID, Email: u.Email, IsNew: isNew}
	if u.FirstName != nil {
		info.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		info.LastName = *u.LastName
	}
	return info
}
