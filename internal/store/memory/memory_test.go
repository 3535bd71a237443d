package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pennypilot/auth/internal/store/core"
	"github.com/pennypilot/auth/internal/store/memory"
)

func TestRotate_ExactlyOneWinner(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	rt, err := st.CreateRefreshToken(ctx, core.CreateRefreshTokenInput{
		UserID:    "u1",
		TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}

	// N rotaciones concurrentes del mismo token: exactamente una gana.
	const callers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, losses := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := st.RotateRefreshToken(ctx, rt.ID, core.CreateRefreshTokenInput{
				UserID:    "u1",
				TokenHash: "hash-next",
				ExpiresAt: time.Now().Add(time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, core.ErrRevoked):
				losses++
			default:
				t.Errorf("unexpected err: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 || losses != callers-1 {
		t.Fatalf("wins=%d losses=%d, want 1/%d", wins, losses, callers-1)
	}
}

func TestRotate_UnknownID(t *testing.T) {
	st := memory.New()
	_, err := st.RotateRefreshToken(context.Background(), "nope", core.CreateRefreshTokenInput{})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRevokeAll_OnlyTargetUser(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	for i, uid := range []string{"u1", "u1", "u2"} {
		_, err := st.CreateRefreshToken(ctx, core.CreateRefreshTokenInput{
			UserID:    uid,
			TokenHash: string(rune('a' + i)),
			ExpiresAt: time.Now().Add(time.Hour),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	n, err := st.RevokeAllRefreshTokens(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("revoked %d, want 2", n)
	}

	// El token de u2 sigue activo.
	rt, err := st.GetRefreshTokenByHash(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if rt.RevokedAt != nil {
		t.Error("u2 token should remain active")
	}
}

func TestDeleteExpired(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	now := time.Now()

	_, _ = st.CreateRefreshToken(ctx, core.CreateRefreshTokenInput{UserID: "u1", TokenHash: "old", ExpiresAt: now.Add(-time.Minute)})
	_, _ = st.CreateRefreshToken(ctx, core.CreateRefreshTokenInput{UserID: "u1", TokenHash: "new", ExpiresAt: now.Add(time.Hour)})

	n, err := st.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("deleted %d, want 1", n)
	}
	if _, err := st.GetRefreshTokenByHash(ctx, "old"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expired token should be gone, err = %v", err)
	}
	if _, err := st.GetRefreshTokenByHash(ctx, "new"); err != nil {
		t.Errorf("live token should remain: %v", err)
	}
}
