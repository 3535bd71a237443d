// Package server arma el servicio completo a partir de la config y maneja su
// ciclo de vida.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pennypilot/auth/internal/cache"
	cachemem "github.com/pennypilot/auth/internal/cache/memory"
	cacheredis "github.com/pennypilot/auth/internal/cache/redis"
	"github.com/pennypilot/auth/internal/config"
	authctrl "github.com/pennypilot/auth/internal/http/controllers/auth"
	healthctrl "github.com/pennypilot/auth/internal/http/controllers/health"
	"github.com/pennypilot/auth/internal/http/router"
	svc "github.com/pennypilot/auth/internal/http/services/auth"
	"github.com/pennypilot/auth/internal/http/transport"
	"github.com/pennypilot/auth/internal/identity"
	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/provider"
	"github.com/pennypilot/auth/internal/session"
	core "github.com/pennypilot/auth/internal/store/core"
	storemem "github.com/pennypilot/auth/internal/store/memory"
	storepg "github.com/pennypilot/auth/internal/store/pg"
)

const shutdownTimeout = 10 * time.Second

// Server es el proceso armado: HTTP + sweeper de tokens vencidos.
type Server struct {
	cfg     *config.Config
	store   core.Store
	httpSrv *http.Server
	sweeper *session.Sweeper

	closers []func()
}

// New construye el server completo desde la config.
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.closers = append(s.closers, store.Close)

	c, closeCache := buildCache(cfg)
	if closeCache != nil {
		s.closers = append(s.closers, closeCache)
	}

	issuer, err := jwt.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.SigningSeed)
	if err != nil {
		return nil, fmt.Errorf("jwt issuer: %w", err)
	}
	issuer.AccessTTL = cfg.AccessTTL()

	registry := buildRegistry(cfg, c)
	resolver := identity.NewResolver(store)
	ledger := session.NewLedger(store, issuer, cfg.RefreshTTL())
	s.sweeper = session.NewSweeper(ledger, cfg.SweepInterval())

	services := svc.NewServices(svc.Deps{
		Store:    store,
		Registry: registry,
		Resolver: resolver,
		Ledger:   ledger,
	})

	selector := transport.NewSelector(transport.CookieConfig{
		Name:     cfg.Session.Cookie.Name,
		Domain:   cfg.Session.Cookie.Domain,
		Path:     cfg.Session.Cookie.Path,
		SameSite: cfg.Session.Cookie.SameSite,
		Secure:   cfg.Session.Cookie.Secure,
	})

	handler := router.New(router.Deps{
		Auth: authctrl.NewControllers(authctrl.Deps{
			Services:   services,
			Selector:   selector,
			RefreshTTL: cfg.RefreshTTL(),
		}),
		Health: healthctrl.NewController(store),
		Issuer: issuer,
	})

	s.httpSrv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Run levanta el listener y el sweeper, y espera a que ctx se cancele para
// el shutdown ordenado.
func (s *Server) Run(ctx context.Context) error {
	log := logger.L().With(logger.Component("server"))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return s.sweeper.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return s.httpSrv.Shutdown(shCtx)
	})

	err := g.Wait()
	s.close()
	return err
}

func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	_ = logger.Sync()
}

func buildStore(ctx context.Context, cfg *config.Config) (core.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return storepg.New(ctx, cfg.Storage.DSN, storepg.Config{
			MaxConns:        int32(cfg.Storage.Postgres.MaxConns),
			MinConns:        int32(cfg.Storage.Postgres.MinConns),
			ConnMaxLifetime: cfg.PostgresConnMaxLifetime(),
		})
	case "memory":
		// Solo para desarrollo local: todo se pierde al reiniciar.
		logger.L().Warn("using in-memory store, data is volatile")
		return storemem.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildCache(cfg *config.Config) (cache.Cache, func()) {
	if cfg.Cache.Kind == "redis" && cfg.Cache.Redis.Addr != "" {
		r := cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		return r, func() { _ = r.Close() }
	}
	return cachemem.New(cfg.CacheDefaultTTL()), nil
}

// buildRegistry arma los verifiers habilitados por config. Un proveedor sin
// credenciales configuradas queda afuera y el login con él responde
// unsupported_provider.
func buildRegistry(cfg *config.Config, c cache.Cache) *provider.Registry {
	timeout := cfg.ProviderHTTPTimeout()
	var vs []provider.Verifier

	if len(cfg.Providers.Google.ClientIDs) > 0 {
		keys := provider.NewKeySet(provider.GoogleJWKSURL, c, timeout)
		vs = append(vs, provider.NewGoogleVerifier(cfg.Providers.Google.ClientIDs, keys))
	}
	if len(cfg.Providers.Apple.Audiences) > 0 {
		keys := provider.NewKeySet(provider.AppleJWKSURL, c, timeout)
		vs = append(vs, provider.NewAppleVerifier(cfg.Providers.Apple.Audiences, keys))
	}
	if cfg.Providers.Facebook.AppID != "" && cfg.Providers.Facebook.AppSecret != "" {
		vs = append(vs, provider.NewFacebookVerifier(cfg.Providers.Facebook.AppID, cfg.Providers.Facebook.AppSecret, "", timeout))
	}

	return provider.NewRegistry(vs...)
}
