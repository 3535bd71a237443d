// Package jwt emite y valida los access tokens del servicio.
package jwt

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const DefaultAccessTTL = 15 * time.Minute

// Issuer firma access tokens EdDSA con una clave ed25519 del proceso.
type Issuer struct {
	Iss       string // "iss" fijo: "auth-service"
	Aud       string // audiencia fija del access token
	AccessTTL time.Duration

	kid  string
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewIssuer construye el issuer desde una seed ed25519 en base64 (32 bytes).
// El kid se deriva de la clave pública para soportar rotación futura.
func NewIssuer(iss, aud, seedB64 string) (*Issuer, error) {
	seed, err := base64.StdEncoding.DecodeString(seedB64)
	if err != nil {
		return nil, fmt.Errorf("decode signing seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	sum := sha256.Sum256(pub)
	kid := base64.RawURLEncoding.EncodeToString(sum[:8])

	return &Issuer{
		Iss:       iss,
		Aud:       aud,
		AccessTTL: DefaultAccessTTL,
		kid:       kid,
		priv:      priv,
		pub:       pub,
	}, nil
}

// ActiveKID devuelve el KID activo actual.
func (i *Issuer) ActiveKID() string { return i.kid }

// PublicKey expone la clave de verificación (para tests y herramientas).
func (i *Issuer) PublicKey() ed25519.PublicKey { return i.pub }

// IssueAccess emite un access token para el user dado. El exp se deriva solo
// de now + AccessTTL; no hay extensión sin un refresh nuevo.
func (i *Issuer) IssueAccess(userID, email string) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := jwtv5.MapClaims{
		"iss":   i.Iss,
		"sub":   userID,
		"aud":   i.Aud,
		"email": email,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.kid
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
