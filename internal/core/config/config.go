package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env             string
	Host            string
	DatabaseURL     string
	StorageDriver   string
	MigrationsDir   string
	AutoMigrate     bool
	JWTSecret       []byte
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	AdminOverrideLimit  int
	AdminOverrideWindow time.Duration
	ClientRateLimit     float64
	ClientRateBurst     int
	CORSAllowedOrigins  []string

	LobbyRackPrefix string

	ServiceName  string
	OTLPEndpoint string
	Version      string
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the process environment, filling gaps from a .env file if one
// exists. Values already set in the environment are never overridden.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv. Malformed optional values fall
// back to their defaults.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env(getenv)

	cfg := &Config{
		Env:                 e.str("APP_ENV", "development"),
		Host:                e.str("APP_HOST", ":8080"),
		DatabaseURL:         e.str("DATABASE_URL", ""),
		StorageDriver:       strings.ToLower(e.str("STORAGE_DRIVER", DriverPostgres)),
		MigrationsDir:       e.str("MIGRATIONS_DIR", "./migrations"),
		AutoMigrate:         e.boolean("AUTO_MIGRATE", false),
		JWTSecret:           []byte(e.str("JWT_SECRET", "")),
		RequestTimeout:      e.duration("REQUEST_TIMEOUT", 15*time.Second),
		ShutdownTimeout:     e.duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AdminOverrideLimit:  e.integer("ADMIN_OVERRIDE_LIMIT", 30),
		AdminOverrideWindow: e.duration("ADMIN_OVERRIDE_WINDOW", time.Minute),
		ClientRateLimit:     e.float("CLIENT_RATE_LIMIT", 20),
		ClientRateBurst:     e.integer("CLIENT_RATE_BURST", 40),
		CORSAllowedOrigins:  e.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		LobbyRackPrefix:     e.str("LOBBY_RACK_PREFIX", "LB"),
		ServiceName:         e.str("SERVICE_NAME", "stock-ledger"),
		OTLPEndpoint:        e.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Version:             e.str("APP_VERSION", "dev"),
	}

	var errs []error
	if len(cfg.JWTSecret) == 0 {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

type env func(string) string

func (e env) str(key, fallback string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return fallback
}

func (e env) integer(key string, fallback int) int {
	v, err := strconv.Atoi(e.str(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (e env) float(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(e.str(key, ""), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (e env) boolean(key string, fallback bool) bool {
	v, err := strconv.ParseBool(e.str(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func (e env) duration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(e.str(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (e env) list(key string, fallback []string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
