// Package cache provee un cache chico de bytes con backends memory y redis.
// Lo usan los verifiers de proveedores para cachear JWKS y metadata de
// introspección; con múltiples instancias del servicio conviene redis para
// compartir el cache.
package cache

import "time"

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
