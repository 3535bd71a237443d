// Package secretbox sella valores de configuración sensibles (seeds de firma,
// app secrets de proveedores) con NaCl secretbox. La clave maestra viene de la
// variable de entorno AUTH_MASTER_KEY en base64 (32 bytes).
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	masterKeyEnvVar = "AUTH_MASTER_KEY"
	keyLength       = 32
	nonceLength     = 24

	// Prefix marca un valor sellado dentro del YAML de configuración.
	Prefix = "enc:"
)

var (
	masterKey     [keyLength]byte
	masterKeyOnce sync.Once
	loadErr       error
)

func ensureLoaded() error {
	masterKeyOnce.Do(func() {
		kb64 := strings.TrimSpace(os.Getenv(masterKeyEnvVar))
		if kb64 == "" {
			loadErr = fmt.Errorf("%s no seteada; genere una clave con: openssl rand -base64 32", masterKeyEnvVar)
			return
		}
		k, err := base64.StdEncoding.DecodeString(kb64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", masterKeyEnvVar, err)
			return
		}
		if len(k) != keyLength {
			loadErr = fmt.Errorf("%s debe decodificar a %d bytes, obtuvo %d", masterKeyEnvVar, keyLength, len(k))
			return
		}
		copy(masterKey[:], k)
	})
	return loadErr
}

// UnsafeResetForTests limpia el estado global para que los tests puedan
// cambiar la clave maestra. No usar fuera de tests.
func UnsafeResetForTests() {
	masterKeyOnce = sync.Once{}
	masterKey = [keyLength]byte{}
	loadErr = nil
}

// Seal cifra un valor y lo devuelve con el prefijo "enc:".
func Seal(plaintext string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &masterKey)
	return Prefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open descifra un valor sellado. Si el valor no tiene el prefijo "enc:",
// se devuelve tal cual (permite configs en claro en desarrollo).
func Open(value string) (string, error) {
	if !strings.HasPrefix(value, Prefix) {
		return value, nil
	}
	if err := ensureLoaded(); err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	if len(raw) < nonceLength {
		return "", errors.New("sealed value too short")
	}
	var nonce [nonceLength]byte
	copy(nonce[:], raw[:nonceLength])
	plain, ok := secretbox.Open(nil, raw[nonceLength:], &nonce, &masterKey)
	if !ok {
		return "", errors.New("sealed value authentication failed")
	}
	return string(plain), nil
}
