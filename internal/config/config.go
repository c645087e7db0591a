package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Store    StoreConfig    `env:",prefix=TIMECLOCK_STORE_"`
	Database DatabaseConfig `env:",prefix=TIMECLOCK_DB_"`
	App      AppConfig      `env:",prefix=TIMECLOCK_APP_"`
	JWT      JWTConfig      `env:",prefix=TIMECLOCK_JWT_"`
	Sync     SyncConfig     `env:",prefix=TIMECLOCK_SYNC_"`
	Geo      GeoConfig      `env:",prefix=TIMECLOCK_GEO_"`
	Tracker  TrackerConfig  `env:",prefix=TIMECLOCK_TRACKER_"`

	RetentionDays     int           `env:"TIMECLOCK_RETENTION_DAYS, default=30"`
	RetentionInterval time.Duration `env:"TIMECLOCK_RETENTION_INTERVAL, default=24h"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StoreConfig selects the Local Store backend.
type StoreConfig struct {
	Driver string `env:"DRIVER, default=sqlite"`
	Path   string `env:"PATH, default=timeclock.db"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST, default=localhost"`
	Port     int    `env:"PORT, default=5432"`
	User     string `env:"USER, default=postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME, default=timeclock"`
	SSLMode  string `env:"SSL_MODE, default=disable"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int    `env:"PORT, default=8080"`
	Env      string `env:"ENV, default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	CORSOrigins []string `env:"CORS_ORIGINS, default=http://localhost:3000"`
}

// JWTConfig holds admin session token configuration
type JWTConfig struct {
	Secret     string        `env:"SECRET"`
	Expiration time.Duration `env:"EXPIRATION, default=15m"`
}

const (
	RemoteGist = "gist"
	RemoteDir  = "dir"
)

// SyncConfig configures the remote snapshot backend.
type SyncConfig struct {
	Remote        string        `env:"REMOTE, default=gist"`
	Token         string        `env:"TOKEN"`
	BaseURL       string        `env:"BASE_URL, default=https://api.github.com"`
	Dir           string        `env:"DIR, default=snapshots"`
	Timeout       time.Duration `env:"TIMEOUT, default=15s"`
	RetryAttempts uint          `env:"RETRY_ATTEMPTS, default=3"`
	AutoPush      bool          `env:"AUTO_PUSH, default=true"`
	Public        bool          `env:"PUBLIC, default=false"`
}

const (
	GeoNone   = "none"
	GeoStatic = "static"
	GeoHTTP   = "http"
)

// GeoConfig configures the geolocation provider.
type GeoConfig struct {
	Provider  string        `env:"PROVIDER, default=none"`
	Timeout   time.Duration `env:"TIMEOUT, default=7s"`
	Latitude  float64       `env:"LATITUDE"`
	Longitude float64       `env:"LONGITUDE"`
	URL       string        `env:"URL"`
}

type TrackerConfig struct {
	Enabled         bool          `env:"ENABLED, default=true"`
	Interval        time.Duration `env:"INTERVAL, default=1m"`
	ThresholdMeters float64       `env:"THRESHOLD_METERS, default=100"`
}

// Load reads an optional .env file and decodes the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return Process(ctx, envconfig.OsLookuper())
}

// Process decodes configuration from lookuper and validates it.
func Process(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("TIMECLOCK_STORE_PATH is required")
		}
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("TIMECLOCK_DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("unsupported TIMECLOCK_STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Sync.Remote {
	case RemoteGist:
		if _, err := url.ParseRequestURI(c.Sync.BaseURL); err != nil {
			return fmt.Errorf("invalid TIMECLOCK_SYNC_BASE_URL: %w", err)
		}
	case RemoteDir:
		if c.Sync.Dir == "" {
			return fmt.Errorf("TIMECLOCK_SYNC_DIR is required")
		}
	default:
		return fmt.Errorf("unsupported TIMECLOCK_SYNC_REMOTE %q", c.Sync.Remote)
	}
	if c.Sync.RetryAttempts == 0 {
		return fmt.Errorf("TIMECLOCK_SYNC_RETRY_ATTEMPTS must be at least 1")
	}

	switch c.Geo.Provider {
	case GeoNone, GeoStatic:
	case GeoHTTP:
		if c.Geo.URL == "" {
			return fmt.Errorf("TIMECLOCK_GEO_URL is required for the http provider")
		}
	default:
		return fmt.Errorf("unsupported TIMECLOCK_GEO_PROVIDER %q", c.Geo.Provider)
	}

	if c.Tracker.Interval <= 0 {
		return fmt.Errorf("TIMECLOCK_TRACKER_INTERVAL must be positive")
	}
	if c.RetentionDays < 1 {
		return fmt.Errorf("TIMECLOCK_RETENTION_DAYS must be at least 1")
	}

	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("TIMECLOCK_JWT_SECRET is required")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
