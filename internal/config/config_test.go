package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pennypilot/auth/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.App.Env)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "memory", cfg.Cache.Kind)
	require.Equal(t, "auth-service", cfg.JWT.Issuer)
	require.Equal(t, "pennypilot", cfg.JWT.Audience)
	require.Equal(t, "refresh_token", cfg.Session.Cookie.Name)
	require.Equal(t, "/auth", cfg.Session.Cookie.Path)
	require.Equal(t, "Strict", cfg.Session.Cookie.SameSite)

	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, 30*24*time.Hour, cfg.RefreshTTL())
	require.Equal(t, time.Hour, cfg.SweepInterval())
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
app:
  env: prod
server:
  addr: ":9090"
storage:
  driver: memory
jwt:
  access_ttl: 5m
  refresh_ttl: 24h
providers:
  google:
    client_ids: ["a", "b"]
  facebook:
    app_id: "123"
    app_secret: "plain-secret"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.App.Env)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, 5*time.Minute, cfg.AccessTTL())
	require.Equal(t, 24*time.Hour, cfg.RefreshTTL())
	require.Equal(t, []string{"a", "b"}, cfg.Providers.Google.ClientIDs)
	// Sin prefijo enc: el secreto pasa tal cual.
	require.Equal(t, "plain-secret", cfg.Providers.Facebook.AppSecret)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
`)
	t.Setenv("AUTH_ADDR", ":7070")
	t.Setenv("AUTH_STORAGE_DRIVER", "memory")
	t.Setenv("AUTH_GOOGLE_CLIENT_IDS", "x, y ,z")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, []string{"x", "y", "z"}, cfg.Providers.Google.ClientIDs)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "{{nope")
	_, err := config.Load(path)
	require.Error(t, err)
}

func TestDurations_FallBackOnGarbage(t *testing.T) {
	path := writeConfig(t, `
jwt:
  access_ttl: "not a duration"
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
}
