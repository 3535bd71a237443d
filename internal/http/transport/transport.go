// Package transport entrega refresh tokens al cliente y los recibe de vuelta
// sin ambigüedad entre dos formas de despliegue: cookie HttpOnly para web y
// body JSON para apps nativas (que no persisten cookies de forma confiable).
package transport

import (
	"net/http"
	"time"
)

// PlatformHeader es la señal de capacidad del cliente.
const PlatformHeader = "X-Client-Platform"

// CookieConfig parametriza la cookie del refresh token.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	SameSite string // "Strict" | "Lax" | "None"
	Secure   bool
}

func (c CookieConfig) sameSite() http.SameSite {
	switch c.SameSite {
	case "Lax":
		return http.SameSiteLaxMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// Carrier define cómo viaja el refresh token hacia el cliente.
type Carrier interface {
	// Deliver setea la cookie; IncludeInBody decide si el valor crudo además
	// va en el JSON de respuesta.
	Deliver(w http.ResponseWriter, raw string, ttl time.Duration)
	IncludeInBody() bool
	// Clear borra la cookie (logout).
	Clear(w http.ResponseWriter)
}

type cookieCarrier struct{ cfg CookieConfig }

type bodyCarrier struct{ cookieCarrier }

// NewSelector arma el selector de carriers para la config dada.
func NewSelector(cfg CookieConfig) *Selector {
	cc := cookieCarrier{cfg: cfg}
	return &Selector{
		cookie: &cc,
		body:   &bodyCarrier{cookieCarrier: cc},
	}
}

// Selector elige el carrier según la señal de plataforma del request.
// Web recibe solo la cookie; todo lo demás recibe además el valor en el body
// para guardarlo en storage seguro del dispositivo.
type Selector struct {
	cookie Carrier
	body   Carrier
}

func (s *Selector) ForRequest(r *http.Request) Carrier {
	if r.Header.Get(PlatformHeader) == "web" {
		return s.cookie
	}
	return s.body
}

func (c *cookieCarrier) Deliver(w http.ResponseWriter, raw string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.Name,
		Value:    raw,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.sameSite(),
	})
}

func (c *cookieCarrier) IncludeInBody() bool { return false }

func (c *cookieCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.Name,
		Value:    "",
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.sameSite(),
	})
}

func (b *bodyCarrier) IncludeInBody() bool { return true }

// Extract devuelve el refresh token del request. Un request puede traerlo por
// cualquiera de los dos canales; el body gana si vienen ambos (clientes que
// mandan cookies viejas junto a un token fresco en el body).
func (s *Selector) Extract(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	cc := s.cookie.(*cookieCarrier)
	if c, err := r.Cookie(cc.cfg.Name); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
