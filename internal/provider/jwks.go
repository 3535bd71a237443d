package provider

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pennypilot/auth/internal/cache"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// KeySet resuelve claves públicas RSA por kid desde un endpoint JWKS.
// El documento se cachea (memory o redis según despliegue) y los fetches
// concurrentes se coalescen con singleflight: N requests que descubren un
// cache frío producen un solo round trip al proveedor.
type KeySet struct {
	url   string
	ttl   time.Duration
	http  *http.Client
	cache cache.Cache
	sf    singleflight.Group
}

func NewKeySet(url string, c cache.Cache, httpTimeout time.Duration) *KeySet {
	if httpTimeout <= 0 {
		httpTimeout = 8 * time.Second
	}
	return &KeySet{
		url:   url,
		ttl:   time.Hour,
		http:  &http.Client{Timeout: httpTimeout},
		cache: c,
	}
}

// RSAKey devuelve la clave pública para el kid dado. Si el kid no está en el
// documento cacheado se fuerza un refetch (rotación de claves del proveedor);
// si sigue sin aparecer, la credencial es inválida.
func (k *KeySet) RSAKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	doc, err := k.document(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if key := findRSA(doc, kid); key != nil {
		return key, nil
	}

	doc, err = k.document(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if key := findRSA(doc, kid); key != nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unknown kid", ErrInvalidCredential)
}

func (k *KeySet) document(ctx context.Context, force bool) (*jwks, error) {
	cacheKey := "jwks:" + k.url

	if !force {
		if b, ok := k.cache.Get(cacheKey); ok {
			var doc jwks
			if err := json.Unmarshal(b, &doc); err == nil {
				return &doc, nil
			}
		}
	}

	v, err, _ := k.sf.Do(cacheKey, func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := k.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
		}
		var doc jwks
		if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
			return nil, err
		}
		if b, err := json.Marshal(&doc); err == nil {
			k.cache.Set(cacheKey, b, k.ttl)
		}
		return &doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jwks), nil
}

func findRSA(doc *jwks, kid string) *rsa.PublicKey {
	for _, key := range doc.Keys {
		if key.Kid != kid || !strings.EqualFold(key.Kty, "RSA") {
			continue
		}
		nb, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil
		}
		eb, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil
		}
		e := 0
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
		if e == 0 {
			e = 65537
		}
		return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}
	}
	return nil
}
