package provider

import (
	"context"
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	AppleJWKSURL = "https://appleid.apple.com/auth/keys"
	appleIssuer  = "https://appleid.apple.com"
)

// AppleVerifier valida identity tokens de Sign in with Apple. El aud debe ser
// exactamente uno de los bundle/service IDs configurados.
//
// Apple solo manda email y nombre en el primer sign-in; después el caller debe
// aportar el fallback capturado en la autorización original vía Hints.
type AppleVerifier struct {
	audiences []string
	keys      *KeySet
}

func NewAppleVerifier(audiences []string, keys *KeySet) *AppleVerifier {
	return &AppleVerifier{audiences: audiences, keys: keys}
}

func (a *AppleVerifier) Name() Name { return Apple }

func (a *AppleVerifier) Verify(ctx context.Context, credential string, hints *Hints) (*Profile, error) {
	claims := jwtv5.MapClaims{}
	_, err := jwtv5.ParseWithClaims(credential, claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrInvalidCredential)
		}
		return a.keys.RSAKey(ctx, kid)
	}, jwtv5.WithValidMethods([]string{"RS256"}))
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if iss, _ := claims["iss"].(string); iss != appleIssuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidCredential)
	}
	if !audMatches(claims, a.audiences) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidCredential)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidCredential)
	}

	email, _ := claims["email"].(string)
	profile := &Profile{ProviderUserID: sub, Email: email}

	// email_verified puede venir como bool o como string "true".
	switch v := claims["email_verified"].(type) {
	case bool:
		profile.EmailVerified = v
	case string:
		profile.EmailVerified = v == "true"
	}

	// Merge del fallback del cliente: el token nunca trae nombres, y el email
	// falta en todo sign-in posterior al primero.
	if hints != nil {
		if profile.Email == "" {
			profile.Email = hints.Email
		}
		profile.FirstName = hints.FirstName
		profile.LastName = hints.LastName
	}
	if profile.Email == "" {
		return nil, ErrMissingEmail
	}
	return profile, nil
}
