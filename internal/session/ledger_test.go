package session_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/session"
	"github.com/pennypilot/auth/internal/store/core"
	"github.com/pennypilot/auth/internal/store/memory"
)

func newLedger(t *testing.T, st core.Store, ttl time.Duration) *session.Ledger {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatal(err)
	}
	issuer, err := jwt.NewIssuer("auth-service", "pennypilot", base64.StdEncoding.EncodeToString(seed))
	if err != nil {
		t.Fatal(err)
	}
	return session.NewLedger(st, issuer, ttl)
}

func seedUser(t *testing.T, st *memory.Store) *core.User {
	t.Helper()
	u, _, err := st.ResolveIdentity(context.Background(), core.ResolveIdentityInput{
		Provider:       "google",
		ProviderUserID: "g-1",
		Email:          "ana@example.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestIssuePair_ProducesUsableTokens(t *testing.T) {
	st := memory.New()
	l := newLedger(t, st, time.Hour)
	u := seedUser(t, st)
	ctx := context.Background()

	pair, err := l.IssuePair(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token in pair")
	}

	userID, err := l.Validate(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if userID != u.ID {
		t.Errorf("userID = %q, want %q", userID, u.ID)
	}
}

func TestRotate_ChainAndSingleUse(t *testing.T) {
	st := memory.New()
	l := newLedger(t, st, time.Hour)
	u := seedUser(t, st)
	ctx := context.Background()

	pair, err := l.IssuePair(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatal(err)
	}

	// Cadena de rotaciones: cada token sirve exactamente una vez.
	current := pair.RefreshToken
	for i := 0; i < 3; i++ {
		next, user, err := l.Rotate(ctx, current)
		if err != nil {
			t.Fatalf("Rotate #%d: %v", i, err)
		}
		if user.ID != u.ID {
			t.Fatalf("rotated user = %q, want %q", user.ID, u.ID)
		}
		if next.RefreshToken == current {
			t.Fatal("rotation returned the same refresh token")
		}

		// El token consumido queda muerto.
		if _, _, err := l.Rotate(ctx, current); !errors.Is(err, session.ErrTokenRevoked) {
			t.Fatalf("reuse err = %v, want ErrTokenRevoked", err)
		}
		current = next.RefreshToken
	}
}

func TestRotate_UnknownToken(t *testing.T) {
	l := newLedger(t, memory.New(), time.Hour)
	if _, _, err := l.Rotate(context.Background(), "never-issued"); !errors.Is(err, session.ErrTokenNotFound) {
		t.Fatalf("err = %v, want ErrTokenNotFound", err)
	}
}

func TestRotate_ExpiredBeatsRevoked(t *testing.T) {
	st := memory.New()
	l := newLedger(t, st, time.Millisecond)
	u := seedUser(t, st)
	ctx := context.Background()

	pair, err := l.IssuePair(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, _, err := l.Rotate(ctx, pair.RefreshToken); !errors.Is(err, session.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRevoke_Idempotent(t *testing.T) {
	st := memory.New()
	l := newLedger(t, st, time.Hour)
	u := seedUser(t, st)
	ctx := context.Background()

	pair, err := l.IssuePair(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := l.Revoke(ctx, pair.RefreshToken); err != nil {
			t.Fatalf("Revoke #%d: %v", i, err)
		}
	}
	if err := l.Revoke(ctx, "unknown-token"); err != nil {
		t.Fatalf("Revoke unknown: %v", err)
	}

	if _, err := l.Validate(ctx, pair.RefreshToken); !errors.Is(err, session.ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}
}

func TestRevokeAll_KillsEverySession(t *testing.T) {
	st := memory.New()
	l := newLedger(t, st, time.Hour)
	u := seedUser(t, st)
	ctx := context.Background()

	var pairs []*session.Pair
	for i := 0; i < 3; i++ {
		p, err := l.IssuePair(ctx, u.ID, u.Email)
		if err != nil {
			t.Fatal(err)
		}
		pairs = append(pairs, p)
	}

	n, err := l.RevokeAll(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("revoked %d, want 3", n)
	}
	for _, p := range pairs {
		if _, _, err := l.Rotate(ctx, p.RefreshToken); !errors.Is(err, session.ErrTokenRevoked) {
			t.Errorf("err = %v, want ErrTokenRevoked", err)
		}
	}
}

func TestSweepExpired_RemovesOnlyExpired(t *testing.T) {
	st := memory.New()
	u := seedUser(t, st)
	ctx := context.Background()

	short := newLedger(t, st, time.Millisecond)
	long := newLedger(t, st, time.Hour)

	if _, err := short.IssuePair(ctx, u.ID, u.Email); err != nil {
		t.Fatal(err)
	}
	alive, err := long.IssuePair(ctx, u.ID, u.Email)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	n, err := long.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("swept %d, want 1", n)
	}
	if _, err := long.Validate(ctx, alive.RefreshToken); err != nil {
		t.Errorf("live token should survive sweep: %v", err)
	}
}
