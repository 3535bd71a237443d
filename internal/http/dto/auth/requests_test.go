package auth_test

import (
	"testing"

	dto "github.com/pennypilot/auth/internal/http/dto/auth"
)

func TestCredentialValue(t *testing.T) {
	cases := []struct {
		name string
		req  dto.SocialLoginRequest
		want string
	}{
		{"credential", dto.SocialLoginRequest{Credential: "abc"}, "abc"},
		{"token alias", dto.SocialLoginRequest{Token: "abc"}, "abc"},
		{"idToken alias", dto.SocialLoginRequest{IDToken: "abc"}, "abc"},
		{"accessToken alias", dto.SocialLoginRequest{AccessToken: "abc"}, "abc"},
		{"credential gana sobre alias", dto.SocialLoginRequest{Credential: "a", IDToken: "b"}, "a"},
		{"solo espacios", dto.SocialLoginRequest{Credential: "   "}, ""},
		{"vacío", dto.SocialLoginRequest{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.req.CredentialValue(); got != tc.want {
				t.Errorf("CredentialValue() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMergedHints(t *testing.T) {
	t.Run("campos al tope del cuerpo", func(t *testing.T) {
		req := dto.SocialLoginRequest{Email: "a@b.com", FirstName: "Ana"}
		h := req.MergedHints()
		if h == nil || h.Email != "a@b.com" || h.FirstName != "Ana" || h.LastName != "" {
			t.Fatalf("MergedHints() = %+v", h)
		}
	})

	t.Run("hints gana sobre el tope", func(t *testing.T) {
		req := dto.SocialLoginRequest{
			Email: "top@b.com",
			Hints: &dto.LoginHints{Email: "hint@b.com", LastName: "Paz"},
		}
		h := req.MergedHints()
		if h.Email != "hint@b.com" || h.LastName != "Paz" {
			t.Fatalf("MergedHints() = %+v", h)
		}
	})

	t.Run("sin datos retorna nil", func(t *testing.T) {
		req := dto.SocialLoginRequest{Provider: "google", Credential: "x"}
		if h := req.MergedHints(); h != nil {
			t.Fatalf("MergedHints() = %+v, want nil", h)
		}
	})
}
