// Package metrics registra las métricas Prometheus del servicio.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// Dominio auth
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Logins sociales por proveedor y resultado",
	}, []string{"provider", "result"}) // result: success|invalid_credential|provider_unavailable|missing_email|unsupported|error

	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_refresh_total",
		Help: "Rotaciones de refresh token por resultado",
	}, []string{"result"}) // result: success|not_found|expired|revoked|error

	// Un token ya rotado presentado de nuevo: señal de replay/robo. Se cuenta
	// aparte de los fallos ordinarios para poder alertar sobre ella.
	RefreshReuseDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_refresh_reuse_detected_total",
		Help: "Presentaciones de refresh tokens ya consumidos",
	})

	TokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_swept_total",
		Help: "Filas de refresh tokens expirados borradas por el sweeper",
	})
)

// Handler expone /metrics.
func Handler() http.Handler { return promhttp.Handler() }
