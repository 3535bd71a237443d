package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pennypilot/auth/internal/config"
	"github.com/pennypilot/auth/internal/http/server"
	"github.com/pennypilot/auth/internal/jwt"
	"github.com/pennypilot/auth/internal/observability/logger"
	"github.com/pennypilot/auth/internal/security/secretbox"
	"github.com/pennypilot/auth/internal/session"
	storepg "github.com/pennypilot/auth/internal/store/pg"
)

func main() {
	// .env es opcional; en prod las vars vienen del entorno real.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:   "authsvc",
		Short: "Servicio de autenticación y sesiones",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("AUTH_CONFIG", "config.yaml"), "Ruta del archivo de configuración (env AUTH_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levantar el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, cfg)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplicar migraciones de base de datos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %s)", cfg.Storage.Driver)
			}
			if err := storepg.Migrate(cmd.Context(), cfg.Storage.DSN); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Borrar refresh tokens vencidos (one-shot)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("sweep requiere storage.driver=postgres (actual: %s)", cfg.Storage.Driver)
			}
			store, err := storepg.New(cmd.Context(), cfg.Storage.DSN, storepg.Config{})
			if err != nil {
				return err
			}
			defer store.Close()

			issuer, err := jwt.NewIssuer(cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.SigningSeed)
			if err != nil {
				return err
			}
			ledger := session.NewLedger(store, issuer, cfg.RefreshTTL())
			n, err := ledger.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("swept %d expired tokens\n", n)
			return nil
		},
	}

	keygenCmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generar una signing seed ed25519 nueva (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := make([]byte, ed25519.SeedSize)
			if _, err := rand.Read(seed); err != nil {
				return err
			}
			fmt.Println(base64.StdEncoding.EncodeToString(seed))
			return nil
		},
	}

	encCmd := &cobra.Command{
		Use:   "enc [value]",
		Short: "Sellar un secreto para la config (requiere AUTH_MASTER_KEY)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sealed, err := secretbox.Seal(args[0])
			if err != nil {
				return err
			}
			fmt.Println(sealed)
			return nil
		},
	}

	root.AddCommand(serveCmd, migrateCmd, sweepCmd, keygenCmd, encCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
