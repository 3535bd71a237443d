// Package provider verifica credenciales de proveedores de identidad
// (Google, Apple, Facebook) y las normaliza a un Profile.
//
// Los verifiers son puros: su único efecto es la llamada HTTPS al proveedor,
// acotada por timeout y sin retry (los retries pertenecen al caller).
package provider

import (
	"context"
	"errors"
	"fmt"
)

// Name identifica un proveedor soportado. El dispatch es siempre por este
// enum en el borde del API, nunca por comparación de strings en la lógica.
type Name string

const (
	Google   Name = "google"
	Apple    Name = "apple"
	Facebook Name = "facebook"
)

// ParseName valida el campo provider del request.
func ParseName(s string) (Name, error) {
	switch Name(s) {
	case Google, Apple, Facebook:
		return Name(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}

// Profile es la identidad normalizada que entrega un verifier.
type Profile struct {
	ProviderUserID string
	Email          string
	FirstName      *string
	LastName       *string
	EmailVerified  bool
}

// Hints es el fallback capturado por el cliente durante la autorización
// original. Apple omite email y nombre en todo sign-in posterior al primero,
// así que el cliente debe reenviarlos.
type Hints struct {
	Email     string
	FirstName *string
	LastName  *string
}

// Errores cerrados de verificación. Los call sites matchean con errors.Is;
// nunca por substring del mensaje.
var (
	ErrInvalidCredential   = errors.New("invalid provider credential")
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	ErrMissingEmail        = errors.New("provider did not supply an email")
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// Verifier convierte una credencial emitida por el proveedor en un Profile.
type Verifier interface {
	Name() Name
	Verify(ctx context.Context, credential string, hints *Hints) (*Profile, error)
}

// Registry agrupa los verifiers configurados, uno por proveedor.
type Registry struct {
	verifiers map[Name]Verifier
}

func NewRegistry(vs ...Verifier) *Registry {
	m := make(map[Name]Verifier, len(vs))
	for _, v := range vs {
		m[v.Name()] = v
	}
	return &Registry{verifiers: m}
}

// Verify despacha al verifier del proveedor indicado.
func (r *Registry) Verify(ctx context.Context, name Name, credential string, hints *Hints) (*Profile, error) {
	v, ok := r.verifiers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, name)
	}
	return v.Verify(ctx, credential, hints)
}
