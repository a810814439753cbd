// Package config loads the application configuration from defaults, an
// optional YAML file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Backend selects the RemoteStore implementation.
type Backend string

const (
	BackendSupabase Backend = "supabase"
	BackendSQLite   Backend = "sqlite"
	BackendMemory   Backend = "memory"
	BackendDynamoDB Backend = "dynamodb"
)

// Config is the complete application configuration.
type Config struct {
	Environment Environment `yaml:"environment" env:"FACTSHUB_ENV"`
	ServiceName string      `yaml:"service_name" env:"FACTSHUB_SERVICE_NAME"`
	Backend     Backend     `yaml:"backend" env:"FACTSHUB_BACKEND"`

	Logging    Logging    `yaml:"logging" envPrefix:"FACTSHUB_LOG_"`
	Supabase   Supabase   `yaml:"supabase" envPrefix:"SUPABASE_"`
	SQLite     SQLite     `yaml:"sqlite" envPrefix:"FACTSHUB_SQLITE_"`
	DynamoDB   DynamoDB   `yaml:"dynamodb" envPrefix:"FACTSHUB_DYNAMODB_"`
	Collection Collection `yaml:"collection" envPrefix:"FACTSHUB_"`
	Breaker    Breaker    `yaml:"circuit_breaker" envPrefix:"FACTSHUB_BREAKER_"`
	Metrics    Metrics    `yaml:"metrics" envPrefix:"FACTSHUB_METRICS_"`
	Tracing    Tracing    `yaml:"tracing" envPrefix:"FACTSHUB_TRACING_"`
	Server     Server     `yaml:"server" envPrefix:"FACTSHUB_HTTP_"`

	// CategoriesFile is an optional YAML list of {name, color} entries
	// replacing the default category table. It is watched for changes.
	CategoriesFile string `yaml:"categories_file" env:"FACTSHUB_CATEGORIES_FILE"`
}

// Logging configures zap.
type Logging struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Supabase holds the project coordinates.
type Supabase struct {
	URL      string `yaml:"url" env:"URL"`
	Key      string `yaml:"key" env:"KEY"`
	Schema   string `yaml:"schema" env:"SCHEMA"`
	Email    string `yaml:"email" env:"EMAIL"`
	Password string `yaml:"password" env:"PASSWORD"`
}

// SQLite locates the database file.
type SQLite struct {
	Path string `yaml:"path" env:"PATH"`
}

// DynamoDB locates the single table holding both facts and comments.
type DynamoDB struct {
	Region      string `yaml:"region" env:"REGION"`
	Table       string `yaml:"table" env:"TABLE"`
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	CreateTable bool   `yaml:"create_table" env:"CREATE_TABLE"`
}

// Collection configures the shared fact collection.
type Collection struct {
	FetchLimit  int    `yaml:"fetch_limit" env:"FETCH_LIMIT"`
	DefaultSort string `yaml:"default_sort" env:"DEFAULT_SORT"`
}

// Breaker configures the remote store circuit breaker.
type Breaker struct {
	Enabled          bool          `yaml:"enabled" env:"ENABLED"`
	MaxRequests      uint32        `yaml:"max_requests" env:"MAX_REQUESTS"`
	Interval         time.Duration `yaml:"interval" env:"INTERVAL"`
	Timeout          time.Duration `yaml:"timeout" env:"TIMEOUT"`
	FailureThreshold float64       `yaml:"failure_threshold" env:"FAILURE_THRESHOLD"`
	MinRequests      uint32        `yaml:"min_requests" env:"MIN_REQUESTS"`
}

// Metrics configures Prometheus.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// Tracing configures OpenTelemetry export.
type Tracing struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
}

// Server configures the HTTP host.
type Server struct {
	Address         string        `yaml:"address" env:"ADDRESS"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Environment: Development,
		ServiceName: "factshub",
		Backend:     BackendMemory,
		Logging:     Logging{Level: "info"},
		Supabase:    Supabase{Schema: "public"},
		SQLite:      SQLite{Path: "factshub.db"},
		DynamoDB:    DynamoDB{Region: "us-east-1", Table: "factshub"},
		Collection: Collection{
			FetchLimit:  1000,
			DefaultSort: valueobjects.DefaultSort.String(),
		},
		Breaker: Breaker{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         30 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
		Metrics: Metrics{Enabled: true, Namespace: "factshub"},
		Tracing: Tracing{Endpoint: "localhost:4317"},
		Server: Server{
			Address:         ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
	}
}

// Validate checks the configuration and fails fast on anything the selected
// backend cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendSupabase:
		if c.Supabase.URL == "" {
			errs = append(errs, errors.New("supabase.url is required for the supabase backend"))
		}
		if c.Supabase.Key == "" {
			errs = append(errs, errors.New("supabase.key is required for the supabase backend"))
		}
		if c.Supabase.Email != "" && c.Supabase.Password == "" {
			errs = append(errs, errors.New("supabase.password is required when supabase.email is set"))
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite.path is required for the sqlite backend"))
		}
	case BackendDynamoDB:
		if c.DynamoDB.Region == "" {
			errs = append(errs, errors.New("dynamodb.region is required for the dynamodb backend"))
		}
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("dynamodb.table is required for the dynamodb backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	if c.Collection.FetchLimit <= 0 {
		errs = append(errs, errors.New("collection.fetch_limit must be positive"))
	}
	if _, err := valueobjects.ParseSort(c.Collection.DefaultSort); err != nil {
		errs = append(errs, fmt.Errorf("collection.default_sort: %w", err))
	}
	if c.Breaker.Enabled && (c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1) {
		errs = append(errs, errors.New("circuit_breaker.failure_threshold must be in (0, 1]"))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing.endpoint is required when tracing is enabled"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// InitialSort returns the configured default sort.
func (c *Config) InitialSort() valueobjects.Sort {
	sort, err := valueobjects.ParseSort(c.Collection.DefaultSort)
	if err != nil {
		return valueobjects.DefaultSort
	}
	return sort
}

// IsProduction reports whether this is the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}
