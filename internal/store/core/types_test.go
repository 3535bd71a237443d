package core_test

import (
	"testing"
	"time"

	"github.com/pennypilot/auth/internal/store/core"
)

func TestRefreshTokenActive(t *testing.T) {
	now := time.Now().UTC()
	revoked := now.Add(-time.Minute)

	cases := []struct {
		name  string
		token core.RefreshToken
		want  bool
	}{
		{"vigente", core.RefreshToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"revocado", core.RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
		{"vencido", core.RefreshToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"vence exactamente ahora", core.RefreshToken{ExpiresAt: now}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.token.Active(now); got != tc.want {
				t.Errorf("Active() = %v, want %v", got, tc.want)
			}
		})
	}
}
