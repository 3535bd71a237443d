package router_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authctrl "github.com/pennypilot/auth/internal/http/controllers/auth"
	healthctrl "github.com/pennypilot/auth/internal/http/controllers/health"
	"github.com/pennypilot/auth/internal/http/router"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/http/transport"
	"github.com/pennypilot/auth/internal/identity"
	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/provider"
	"github.com/pennypilot/auth/internal/session"
	"github.com/pennypilot/auth/internal/store/memory"
)

// fakeVerifier acepta cualquier credencial con el prefijo "ok:" y devuelve un
// perfil derivado de ella; lo demás es credencial inválida.
type fakeVerifier struct{ name provider.Name }

func (f *fakeVerifier) Name() provider.Name { return f.name }

func (f *fakeVerifier) Verify(ctx context.Context, credential string, _ *provider.Hints) (*provider.Profile, error) {
	if len(credential) < 3 || credential[:3] != "ok:" {
		return nil, provider.ErrInvalidCredential
	}
	sub := credential[3:]
	return &provider.Profile{
		ProviderUserID: sub,
		Email:          sub + "@example.com",
		EmailVerified:  true,
	}, nil
}

type env struct {
	srv   *httptest.Server
	store *memory.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	issuer, err := jwt.NewIssuer("auth-service", "pennypilot", base64.StdEncoding.EncodeToString(seed))
	if err != nil {
		t.Fatal(err)
	}

	st := memory.New()
	ledger := session.NewLedger(st, issuer, time.Hour)
	registry := provider.NewRegistry(&fakeVerifier{name: provider.Google})

	services := svc.NewServices(svc.Deps{
		Store:    st,
		Registry: registry,
		Resolver: identity.NewResolver(st),
		Ledger:   ledger,
	})

	selector := transport.NewSelector(transport.CookieConfig{
		Name:     "refresh_token",
		Path:     "/auth",
		SameSite: "Strict",
	})

	h := router.New(router.Deps{
		Auth: authctrl.NewControllers(authctrl.Deps{
			Services:   services,
			Selector:   selector,
			RefreshTTL: time.Hour,
		}),
		Health: healthctrl.NewController(st),
		Issuer: issuer,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &env{srv: srv, store: st}
}

type tokenPair struct {
	AccessToken     string    `json:"accessToken"`
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
	RefreshToken    string    `json:"refreshToken"`
	User            *struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		IsNew bool   `json:"isNew"`
	} `json:"user"`
}

func (e *env) post(t *testing.T, path string, body any, mod func(*http.Request)) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if mod != nil {
		mod(req)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func login(t *testing.T, e *env, sub string) tokenPair {
	t.Helper()
	resp := e.post(t, "/auth/social-login", map[string]string{
		"provider":   "google",
		"credential": "ok:" + sub,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	return decode[tokenPair](t, resp)
}

func TestSocialLogin_NativeFlow(t *testing.T) {
	e := newEnv(t)

	pair := login(t, e, "ana")
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("native login must return both tokens in the body")
	}
	if pair.User == nil || !pair.User.IsNew {
		t.Errorf("first login should report a new user, got %+v", pair.User)
	}

	again := login(t, e, "ana")
	if again.User.IsNew {
		t.Error("second login should not report a new user")
	}
	if e.store.CountUsers() != 1 {
		t.Errorf("users = %d, want 1", e.store.CountUsers())
	}
}

func TestSocialLogin_AcceptsDocumentedFieldNames(t *testing.T) {
	e := newEnv(t)

	// idToken como alias de la credencial y perfil al tope del cuerpo.
	resp := e.post(t, "/auth/social-login", map[string]string{
		"provider":  "google",
		"idToken":   "ok:laura",
		"email":     "laura@example.com",
		"firstName": "Laura",
		"lastName":  "Paz",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	pair := decode[tokenPair](t, resp)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("login must return both tokens in the body")
	}
	if pair.User == nil || pair.User.Email != "laura@example.com" {
		t.Errorf("user = %+v, want laura@example.com", pair.User)
	}
}

func TestSocialLogin_WebFlowUsesCookie(t *testing.T) {
	e := newEnv(t)

	resp := e.post(t, "/auth/social-login", map[string]string{
		"provider":   "google",
		"credential": "ok:ana",
	}, func(r *http.Request) { r.Header.Set(transport.PlatformHeader, "web") })
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "refresh_token" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("web login must set the refresh cookie")
	}
	if !cookie.HttpOnly {
		t.Error("refresh cookie must be HttpOnly")
	}

	pair := decode[tokenPair](t, resp)
	if pair.RefreshToken != "" {
		t.Error("web login must not echo the refresh token in the body")
	}
	if resp.Header.Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", resp.Header.Get("Cache-Control"))
	}

	// Refresh por cookie, sin body.
	refreshReq, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/auth/refresh", nil)
	refreshReq.Header.Set(transport.PlatformHeader, "web")
	refreshReq.AddCookie(cookie)
	refreshResp, err := http.DefaultClient.Do(refreshReq)
	if err != nil {
		t.Fatal(err)
	}
	if refreshResp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", refreshResp.StatusCode)
	}
	refreshResp.Body.Close()
}

func TestSocialLogin_BadRequests(t *testing.T) {
	e := newEnv(t)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"unsupported provider", map[string]string{"provider": "github", "credential": "x"}, http.StatusBadRequest},
		{"missing fields", map[string]string{"provider": "google"}, http.StatusBadRequest},
		{"bad credential", map[string]string{"provider": "google", "credential": "nope"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := e.post(t, "/auth/social-login", tc.body, nil)
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}

func TestRefresh_RotatesAndDetectsReuse(t *testing.T) {
	e := newEnv(t)
	pair := login(t, e, "ana")

	resp := e.post(t, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d", resp.StatusCode)
	}
	next := decode[tokenPair](t, resp)
	if next.RefreshToken == "" || next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must return a fresh token")
	}

	// Reuso del token consumido: 401.
	resp = e.post(t, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reuse status = %d, want 401", resp.StatusCode)
	}

	// El sucesor sigue vivo.
	resp = e.post(t, "/auth/refresh", map[string]string{"refreshToken": next.RefreshToken}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("successor status = %d, want 200", resp.StatusCode)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	e := newEnv(t)
	resp := e.post(t, "/auth/refresh", map[string]string{}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLogout_RevokesAndIsIdempotent(t *testing.T) {
	e := newEnv(t)
	pair := login(t, e, "ana")

	for i := 0; i < 2; i++ {
		resp := e.post(t, "/auth/logout", map[string]string{"refreshToken": pair.RefreshToken}, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("logout #%d status = %d, want 200", i, resp.StatusCode)
		}
	}

	resp := e.post(t, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout = %d, want 401", resp.StatusCode)
	}
}

func TestLogoutAll_RequiresAuthAndKillsSessions(t *testing.T) {
	e := newEnv(t)
	a := login(t, e, "ana")
	b := login(t, e, "ana")

	// Sin bearer: 401.
	resp := e.post(t, "/auth/logout-all", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	resp = e.post(t, "/auth/logout-all", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+a.AccessToken)
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	for _, pair := range []tokenPair{a, b} {
		resp := e.post(t, "/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("refresh status = %d, want 401", resp.StatusCode)
		}
	}
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	pair := login(t, e, "ana")

	req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	me := decode[struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}](t, resp)
	if me.Email != "ana@example.com" {
		t.Errorf("email = %q", me.Email)
	}

	for _, auth := range []string{"", "Bearer garbage", "Basic abc"} {
		req, _ := http.NewRequest(http.MethodGet, e.srv.URL+"/auth/me", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("auth %q status = %d, want 401", auth, resp.StatusCode)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(e.srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Get(e.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/metrics status = %d", resp.StatusCode)
	}
}

func TestErrorShape(t *testing.T) {
	e := newEnv(t)

	resp := e.post(t, "/auth/social-login", map[string]string{"provider": "github", "credential": "x"}, nil)
	if ct := resp.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decode[struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}](t, resp)
	if body.Code != "UNSUPPORTED_PROVIDER" {
		t.Errorf("code = %q, want UNSUPPORTED_PROVIDER", body.Code)
	}
	if body.Message == "" {
		t.Error("error responses must carry a human readable message")
	}
}
