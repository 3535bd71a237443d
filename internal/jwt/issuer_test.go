package jwt_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	jwtx "github.com/pennypilot/auth/internal/jwt"
)

func newSeed(t *testing.T) string {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return base64.StdEncoding.EncodeToString(seed)
}

func newIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer("auth-service", "pennypilot", newSeed(t))
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return iss
}

func TestIssueAndParse_RoundTrip(t *testing.T) {
	iss := newIssuer(t)

	signed, exp, err := iss.IssueAccess("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Fatalf("exp should be in the future, got %v", exp)
	}

	p, err := iss.ParseAccess(signed)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if p.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", p.UserID)
	}
	if p.Email != "ana@example.com" {
		t.Errorf("Email = %q, want ana@example.com", p.Email)
	}
}

func TestNewIssuer_RejectsBadSeed(t *testing.T) {
	if _, err := jwtx.NewIssuer("i", "a", "no-es-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64 seed")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := jwtx.NewIssuer("i", "a", short); err == nil {
		t.Fatal("expected error for short seed")
	}
}

func TestParseAccess_TamperedSignature(t *testing.T) {
	iss := newIssuer(t)
	signed, _, err := iss.IssueAccess("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected jwt format")
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		t.Fatal(err)
	}
	sig[0] ^= 0x01
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	if _, err := iss.ParseAccess(strings.Join(parts, ".")); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseAccess_ForeignKey(t *testing.T) {
	a := newIssuer(t)
	b := newIssuer(t)

	signed, _, err := a.IssueAccess("user-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ParseAccess(signed); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseAccess_WrongIssuerAndAudience(t *testing.T) {
	seed := newSeed(t)
	good, err := jwtx.NewIssuer("auth-service", "pennypilot", seed)
	if err != nil {
		t.Fatal(err)
	}

	otherIss, err := jwtx.NewIssuer("otro-servicio", "pennypilot", seed)
	if err != nil {
		t.Fatal(err)
	}
	signed, _, err := otherIss.IssueAccess("user-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := good.ParseAccess(signed); !errors.Is(err, jwtx.ErrInvalidIssuer) {
		t.Fatalf("err = %v, want ErrInvalidIssuer", err)
	}

	otherAud, err := jwtx.NewIssuer("auth-service", "otra-app", seed)
	if err != nil {
		t.Fatal(err)
	}
	signed, _, err = otherAud.IssueAccess("user-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := good.ParseAccess(signed); !errors.Is(err, jwtx.ErrInvalidAudience) {
		t.Fatalf("err = %v, want ErrInvalidAudience", err)
	}
}

func TestParseAccess_Expired(t *testing.T) {
	iss := newIssuer(t)
	// TTL negativo más allá de la tolerancia de 30s.
	iss.AccessTTL = -2 * time.Minute

	signed, _, err := iss.IssueAccess("user-1", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseAccess(signed); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseAccess_RejectsUnsignedAlg(t *testing.T) {
	iss := newIssuer(t)

	claims := jwtv5.MapClaims{
		"iss": "auth-service",
		"sub": "user-1",
		"aud": "pennypilot",
		"exp": time.Now().Add(5 * time.Minute).Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodNone, claims)
	signed, err := tk.SignedString(jwtv5.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseAccess(signed); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseAccess_MissingSub(t *testing.T) {
	iss := newIssuer(t)
	signed, _, err := iss.IssueAccess("", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseAccess(signed); !errors.Is(err, jwtx.ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
