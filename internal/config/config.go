// Package config carga la configuración del servicio: YAML + overrides por
// variables de entorno. Los valores sensibles pueden venir sellados con el
// prefijo "enc:" (ver internal/security/secretbox).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pennypilot/auth/internal/security/secretbox"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory (memory solo para desarrollo)
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer      string `yaml:"issuer"`
		Audience    string `yaml:"audience"`
		SigningSeed string `yaml:"signing_seed"` // base64, sellable con enc:
		AccessTTL   string `yaml:"access_ttl"`
		RefreshTTL  string `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Session struct {
		SweepInterval string `yaml:"sweep_interval"`
		Cookie        struct {
			Name     string `yaml:"name"`
			Domain   string `yaml:"domain"`
			Path     string `yaml:"path"`
			SameSite string `yaml:"samesite"`
			Secure   bool   `yaml:"secure"`
		} `yaml:"cookie"`
	} `yaml:"session"`

	Providers struct {
		HTTPTimeout string `yaml:"http_timeout"`
		Google      struct {
			ClientIDs []string `yaml:"client_ids"`
		} `yaml:"google"`
		Apple struct {
			Audiences []string `yaml:"audiences"`
		} `yaml:"apple"`
		Facebook struct {
			AppID     string `yaml:"app_id"`
			AppSecret string `yaml:"app_secret"` // sellable con enc:
		} `yaml:"facebook"`
	} `yaml:"providers"`
}

// Load lee el YAML (si existe), aplica overrides de entorno y abre los
// valores sellados.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)

	if err := openSealed(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "postgres"
	}
	if cfg.Cache.Kind == "" {
		cfg.Cache.Kind = "memory"
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "auth-service"
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "pennypilot"
	}
	if cfg.Session.Cookie.Name == "" {
		cfg.Session.Cookie.Name = "refresh_token"
	}
	if cfg.Session.Cookie.Path == "" {
		cfg.Session.Cookie.Path = "/auth"
	}
	if cfg.Session.Cookie.SameSite == "" {
		cfg.Session.Cookie.SameSite = "Strict"
	}
}

func applyEnv(cfg *Config) {
	envStr("AUTH_ENV", &cfg.App.Env)
	envStr("AUTH_LOG_LEVEL", &cfg.Log.Level)
	envStr("AUTH_ADDR", &cfg.Server.Addr)
	envStr("AUTH_STORAGE_DRIVER", &cfg.Storage.Driver)
	envStr("AUTH_DSN", &cfg.Storage.DSN)
	envStr("AUTH_CACHE_KIND", &cfg.Cache.Kind)
	envStr("AUTH_REDIS_ADDR", &cfg.Cache.Redis.Addr)
	envInt("AUTH_REDIS_DB", &cfg.Cache.Redis.DB)
	envStr("AUTH_JWT_ISSUER", &cfg.JWT.Issuer)
	envStr("AUTH_JWT_AUDIENCE", &cfg.JWT.Audience)
	envStr("AUTH_JWT_SIGNING_SEED", &cfg.JWT.SigningSeed)
	envStr("AUTH_JWT_ACCESS_TTL", &cfg.JWT.AccessTTL)
	envStr("AUTH_JWT_REFRESH_TTL", &cfg.JWT.RefreshTTL)
	envStr("AUTH_GOOGLE_CLIENT_IDS", nil, func(v string) {
		cfg.Providers.Google.ClientIDs = splitCSV(v)
	})
	envStr("AUTH_APPLE_AUDIENCES", nil, func(v string) {
		cfg.Providers.Apple.Audiences = splitCSV(v)
	})
	envStr("AUTH_FACEBOOK_APP_ID", &cfg.Providers.Facebook.AppID)
	envStr("AUTH_FACEBOOK_APP_SECRET", &cfg.Providers.Facebook.AppSecret)
}

func openSealed(cfg *Config) error {
	var err error
	if cfg.JWT.SigningSeed, err = secretbox.Open(cfg.JWT.SigningSeed); err != nil {
		return fmt.Errorf("jwt.signing_seed: %w", err)
	}
	if cfg.Providers.Facebook.AppSecret, err = secretbox.Open(cfg.Providers.Facebook.AppSecret); err != nil {
		return fmt.Errorf("providers.facebook.app_secret: %w", err)
	}
	return nil
}

// Duraciones con default: el TTL del access token y del refresh token están
// fijados por contrato (15m / 30d) salvo override explícito.

func (c *Config) AccessTTL() time.Duration {
	return duration(c.JWT.AccessTTL, 15*time.Minute)
}

func (c *Config) RefreshTTL() time.Duration {
	return duration(c.JWT.RefreshTTL, 30*24*time.Hour)
}

func (c *Config) SweepInterval() time.Duration {
	return duration(c.Session.SweepInterval, time.Hour)
}

func (c *Config) ProviderHTTPTimeout() time.Duration {
	return duration(c.Providers.HTTPTimeout, 8*time.Second)
}

func (c *Config) CacheDefaultTTL() time.Duration {
	return duration(c.Cache.Memory.DefaultTTL, time.Hour)
}

func (c *Config) PostgresConnMaxLifetime() time.Duration {
	return duration(c.Storage.Postgres.ConnMaxLifetime, 30*time.Minute)
}

func duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func envStr(key string, dst *string, fns ...func(string)) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if dst != nil {
		*dst = v
	}
	for _, fn := range fns {
		fn(v)
	}
}

func envInt(key string, dst *int) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
