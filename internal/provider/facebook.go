package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FacebookGraphURL es la base del Graph API en producción.
const FacebookGraphURL = "https://graph.facebook.com/v19.0"

// FacebookVerifier valida access tokens de Facebook en dos pasos:
//
//  1. introspección con debug_token usando el app token propio, exigiendo
//     is_valid=true y que app_id sea el configurado — esto bloquea la
//     sustitución de un token emitido para otra app;
//  2. fetch del perfil (id, email, nombres) con el token ya verificado.
type FacebookVerifier struct {
	appID     string
	appSecret string
	baseURL   string
	http      *http.Client
}

func NewFacebookVerifier(appID, appSecret, baseURL string, timeout time.Duration) *FacebookVerifier {
	if baseURL == "" {
		baseURL = FacebookGraphURL
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &FacebookVerifier{
		appID:     appID,
		appSecret: appSecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: timeout},
	}
}

func (f *FacebookVerifier) Name() Name { return Facebook }

type fbDebugResponse struct {
	Data struct {
		AppID   string `json:"app_id"`
		IsValid bool   `json:"is_valid"`
		UserID  string `json:"user_id"`
	} `json:"data"`
}

type fbProfileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (f *FacebookVerifier) Verify(ctx context.Context, credential string, _ *Hints) (*Profile, error) {
	var dbg fbDebugResponse
	q := url.Values{}
	q.Set("input_token", credential)
	q.Set("access_token", f.appID+"|"+f.appSecret)
	status, err := f.getJSON(ctx, "/debug_token?"+q.Encode(), &dbg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if status != http.StatusOK || !dbg.Data.IsValid {
		return nil, fmt.Errorf("%w: token introspection rejected", ErrInvalidCredential)
	}
	if dbg.Data.AppID != f.appID {
		return nil, fmt.Errorf("%w: app_id mismatch", ErrInvalidCredential)
	}

	var prof fbProfileResponse
	q = url.Values{}
	q.Set("fields", "id,email,first_name,last_name")
	q.Set("access_token", credential)
	status, err = f.getJSON(ctx, "/me?"+q.Encode(), &prof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if status != http.StatusOK || prof.ID == "" {
		return nil, fmt.Errorf("%w: profile fetch rejected", ErrInvalidCredential)
	}
	if prof.Email == "" {
		// El user no otorgó el permiso de email.
		return nil, ErrMissingEmail
	}

	p := &Profile{
		ProviderUserID: prof.ID,
		Email:          prof.Email,
		EmailVerified:  true, // Facebook solo entrega emails confirmados
	}
	if prof.FirstName != "" {
		p.FirstName = &prof.FirstName
	}
	if prof.LastName != "" {
		p.LastName = &prof.LastName
	}
	return p, nil
}

func (f *FacebookVerifier) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, nil // cuerpo no-JSON: decide el status
	}
	return resp.StatusCode, nil
}
