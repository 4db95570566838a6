package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "letterdesk.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "LETTERDESK_PORT")
	setString(&cfg.Server.CORSOrigin, "LETTERDESK_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "LETTERDESK_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "LETTERDESK_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "LETTERDESK_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "LETTERDESK_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "LETTERDESK_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")
	setString(&cfg.Logging.Level, "LETTERDESK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "LETTERDESK_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "LETTERDESK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "LETTERDESK_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "LETTERDESK_RATE_RPS")
	setInt(&cfg.Rate.Burst, "LETTERDESK_RATE_BURST")

	setBool(&cfg.Auth.Enabled, "LETTERDESK_AUTH_ENABLED")
	setString(&cfg.Auth.Secret, "LETTERDESK_AUTH_SECRET")
	setString(&cfg.Auth.AdminEmail, "LETTERDESK_ADMIN_EMAIL")
	setString(&cfg.Auth.AdminPasswordHash, "LETTERDESK_ADMIN_PASSWORD_HASH")
	setDuration(&cfg.Auth.TokenExpiry, "LETTERDESK_TOKEN_EXPIRY")

	setInt(&cfg.Panel.MaxRounds, "LETTERDESK_PANEL_MAX_ROUNDS")
	setString(&cfg.Panel.Model, "LETTERDESK_PANEL_MODEL")
	setInt(&cfg.Panel.MaxTokens, "LETTERDESK_PANEL_MAX_TOKENS")
	setFloat64(&cfg.Panel.Temperature, "LETTERDESK_PANEL_TEMPERATURE")

	setString(&cfg.Advisor.Model, "LETTERDESK_ADVISOR_MODEL")
	setDuration(&cfg.Advisor.SuggestionTTL, "LETTERDESK_ADVISOR_SUGGESTION_TTL")

	setBool(&cfg.Telemetry.Enabled, "LETTERDESK_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "LETTERDESK_OTEL_ENDPOINT")
	setFloat64(&cfg.Telemetry.SampleRate, "LETTERDESK_OTEL_SAMPLE_RATE")

	setInt64(&cfg.Cache.MaxSizeMB, "LETTERDESK_CACHE_SIZE_MB")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Panel.MaxRounds < 1 {
		return errors.New("panel.max_rounds must be >= 1")
	}
	if cfg.Auth.Enabled {
		if cfg.Auth.Secret == "" {
			return errors.New("auth.secret is required when auth is enabled")
		}
		if cfg.Auth.AdminPasswordHash == "" {
			return errors.New("auth.admin_password_hash is required when auth is enabled")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
