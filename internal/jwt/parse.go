package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken    = errors.New("invalid_jwt")
	ErrInvalidIssuer   = errors.New("invalid_issuer")
	ErrInvalidAudience = errors.New("invalid_audience")
)

// Principal es la identidad probada por un access token válido.
type Principal struct {
	UserID string
	Email  string
}

// ParseAccess valida firma EdDSA, iss, aud y exp/nbf (con 30s de tolerancia)
// y devuelve el principal. Cualquier falla colapsa a ErrInvalidToken o a los
// errores de iss/aud; no se filtra detalle del parseo al cliente.
func (i *Issuer) ParseAccess(token string) (*Principal, error) {
	tok, err := jwtv5.Parse(token, func(t *jwtv5.Token) (any, error) {
		return i.pub, nil
	}, jwtv5.WithValidMethods([]string{"EdDSA"}), jwtv5.WithLeeway(30*time.Second))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if iss, _ := claims["iss"].(string); iss != i.Iss {
		return nil, ErrInvalidIssuer
	}
	if aud, _ := claims["aud"].(string); aud != i.Aud {
		return nil, ErrInvalidAudience
	}

	now := time.Now()
	if expf, ok := claims["exp"].(float64); ok {
		if time.Unix(int64(expf), 0).Before(now.Add(-30 * time.Second)) {
			return nil, ErrInvalidToken
		}
	} else {
		return nil, ErrInvalidToken
	}
	if nbff, ok := claims["nbf"].(float64); ok {
		if time.Unix(int64(nbff), 0).After(now.Add(30 * time.Second)) {
			return nil, ErrInvalidToken
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return &Principal{UserID: sub, Email: email}, nil
}
