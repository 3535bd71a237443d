package provider

import (
	"context"
	"errors"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// GoogleJWKSURL es el endpoint publicado en el discovery de Google.
const GoogleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// GoogleVerifier valida ID tokens OIDC de Google. El aud se chequea contra el
// conjunto de client IDs configurados (web/iOS/Android): cualquier match vale.
type GoogleVerifier struct {
	clientIDs []string
	keys      *KeySet
}

func NewGoogleVerifier(clientIDs []string, keys *KeySet) *GoogleVerifier {
	return &GoogleVerifier{clientIDs: clientIDs, keys: keys}
}

func (g *GoogleVerifier) Name() Name { return Google }

func (g *GoogleVerifier) Verify(ctx context.Context, credential string, _ *Hints) (*Profile, error) {
	claims := jwtv5.MapClaims{}
	_, err := jwtv5.ParseWithClaims(credential, claims, func(t *jwtv5.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid", ErrInvalidCredential)
		}
		return g.keys.RSAKey(ctx, kid)
	}, jwtv5.WithValidMethods([]string{"RS256"}))
	if err != nil {
		// El keyfunc propaga ErrProviderUnavailable si el fetch de JWKS falló;
		// cualquier otra cosa (firma, exp) es credencial inválida.
		if errors.Is(err, ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	iss, _ := claims["iss"].(string)
	if !containsString(googleIssuers, iss) {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidCredential)
	}
	if !audMatches(claims, g.clientIDs) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidCredential)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidCredential)
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, ErrMissingEmail
	}
	verified, _ := claims["email_verified"].(bool)

	return &Profile{
		ProviderUserID: sub,
		Email:          email,
		FirstName:      optClaim(claims, "given_name"),
		LastName:       optClaim(claims, "family_name"),
		EmailVerified:  verified,
	}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// audMatches acepta aud como string o como lista (ambas formas son válidas
// en un JWT) y matchea contra cualquiera de los valores permitidos.
func audMatches(claims jwtv5.MapClaims, allowed []string) bool {
	switch aud := claims["aud"].(type) {
	case string:
		return containsString(allowed, aud)
	case []any:
		for _, a := range aud {
			if s, ok := a.(string); ok && containsString(allowed, s) {
				return true
			}
		}
	}
	return false
}

func optClaim(claims jwtv5.MapClaims, key string) *string {
	if s, _ := claims[key].(string); s != "" {
		return &s
	}
	return nil
}
