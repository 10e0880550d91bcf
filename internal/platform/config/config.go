// Package config handles application-wide settings and environment parsing.
//
// It leverages 'caarlos0/env' to map OS environment variables into a
// strongly-typed Go struct, providing early validation and default values.
// Keys tagged required must be set; the rest are optional (most carry an
// envDefault, REDIS_URL has none). A missing required key surfaces as an [apperr.AppError] with code
// [apperr.CodeConfigMissing] rather than panicking.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/flibusta-go/libupdater/internal/platform/apperr"
)

// # Configuration Schema

// Config holds all runtime configuration for the ingestion pipeline,
// loaded from recognized environment keys.
type Config struct {
	// ServerPort is where the /update trigger listens.
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	Debug      bool   `env:"DEBUG" envDefault:"false"`

	// APIKey authorizes POST /update via the Authorization header.
	APIKey string `env:"API_KEY,required"`

	// SentryDSN configures the error-reporting exporter.
	SentryDSN string `env:"SENTRY_DSN,required"`

	// PostgreSQL connection parameters. The pipeline builds its own DSN from
	// these discrete fields rather than a single DATABASE_URL.
	PostgresDBName   string `env:"POSTGRES_DB_NAME,required"`
	PostgresHost     string `env:"POSTGRES_HOST,required"`
	PostgresPort     int    `env:"POSTGRES_PORT,required"`
	PostgresUser     string `env:"POSTGRES_USER,required"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,required"`

	// PostgresPoolSize overrides the default pool capacity. Must stay above
	// the 12-task concurrency floor; see postgres.NewPool.
	PostgresPoolSize int `env:"POSTGRES_POOL_SIZE" envDefault:"0"`

	// MigrationPath is the filesystem path to the schema-bootstrap migrations.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./migrations"`

	// FLBaseURL is the stable HTTP origin the dumps are published under.
	FLBaseURL string `env:"FL_BASE_URL,required"`

	// Webhooks fan out after a successful run.
	Webhooks Webhooks `env:"WEBHOOKS,required"`

	// RedisURL, if set, upgrades the single-run guard from an in-process
	// mutex to a distributed Redis lock; optional, for multi-instance
	// deployments.
	RedisURL string `env:"REDIS_URL"`
}

// Webhook describes one post-run fan-out target.
type Webhook struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// Webhooks is the JSON-array-in-an-env-var shape of WEBHOOKS, parsed via
// [Webhooks.UnmarshalText] so caarlos0/env can populate it directly.
type Webhooks []Webhook

// UnmarshalText implements encoding.TextUnmarshaler so env.Parse can
// populate Webhooks straight from the WEBHOOKS JSON array.
func (w *Webhooks) UnmarshalText(data []byte) error {
	var parsed []Webhook
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: WEBHOOKS is not a valid JSON array: %w", err)
	}
	*w = parsed
	return nil
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct. Any missing
// required variable or malformed WEBHOOKS value is returned as a
// [apperr.AppError] with code [apperr.CodeConfigMissing].
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, apperr.ConfigMissing("failed to parse environment variables", err)
	}

	return cfg, nil
}

// PostgresDSN builds a libpq-compatible DSN from the discrete Postgres fields.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDBName,
	)
}
