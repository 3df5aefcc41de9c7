package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is the optional YAML file read from the working directory.
const ConfigFile = "config.yaml"

// Activity store backends.
const (
	ActivityStorePostgres = "postgres"
	ActivityStoreMongo    = "mongo"
)

// Config holds all configuration for projectvault.
// Values come from config.yaml when present, with environment variables
// overriding YAML. Secrets must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Activity ActivityConfig `yaml:"activity"`
	Checkout CheckoutConfig `yaml:"checkout"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT signatures are validated.
	// Set to false for local development without an identity provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// AdminRole is the token role that grants administrator rights
	// (e.g. forced check-in of someone else's checkout).
	AdminRole string `yaml:"admin_role" env:"AUTH_ADMIN_ROLE" env-default:"admin"`

	// JWKSEndpoints is parsed from JWKSEndpointsStr.
	JWKSEndpoints map[string]string `yaml:"-"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"projectvault"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"projectvault"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the optional Redis cache configuration.
// An empty Host disables caching.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"5m"`
}

// ActivityConfig selects where activity feed entries are stored.
type ActivityConfig struct {
	Store         string `yaml:"store" env:"ACTIVITY_STORE" env-default:"postgres"`
	MongoURL      string `yaml:"mongo_url" env:"ACTIVITY_MONGO_URL" env-default:"mongodb://localhost:27017"`
	MongoDatabase string `yaml:"mongo_database" env:"ACTIVITY_MONGO_DATABASE" env-default:"projectvault"`
}

// CheckoutConfig holds checkout lock settings.
type CheckoutConfig struct {
	// DefaultDurationHours is applied when a checkout has no expected return.
	DefaultDurationHours int `yaml:"default_duration_hours" env:"CHECKOUT_DEFAULT_DURATION_HOURS" env-default:"168"`
}

// DefaultDuration returns the default checkout duration.
func (c *CheckoutConfig) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationHours) * time.Hour
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Activity.Store {
	case ActivityStorePostgres, ActivityStoreMongo:
	default:
		return fmt.Errorf("activity.store must be %q or %q, got %q",
			ActivityStorePostgres, ActivityStoreMongo, c.Activity.Store)
	}

	if c.Checkout.DefaultDurationHours <= 0 {
		return errors.New("checkout.default_duration_hours must be positive")
	}

	if c.Auth.EnableVerification && len(c.Auth.JWKSEndpoints) == 0 {
		return errors.New("auth.jwks_endpoints is required when verification is enabled")
	}

	return nil
}

// parseJWKSEndpoints parses "issuer1=url1,issuer2=url2" into a map.
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	for _, pair := range strings.Split(value, ",") {
		issuer, jwksURL, ok := strings.Cut(pair, "=")
		if ok {
			endpoints[strings.TrimSpace(issuer)] = strings.TrimSpace(jwksURL)
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Addr returns the host:port of the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port)
}
