package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Failure policies for per-item order book syncs.
const (
	FailurePolicyAbort    = "abort"
	FailurePolicyContinue = "continue"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App    AppConfig
	Sync   SyncConfig
	HTTP   HTTPConfig
	Store  StoreConfig
	Cache  CacheConfig
	Server ServerConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"wfmarket-sync"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// SyncConfig holds the options of a single sync pass.
type SyncConfig struct {
	DatabasePath      string  `envconfig:"SYNC_DB_PATH" default:"warframe_market.sqlite3"`
	Limit             int     `envconfig:"SYNC_LIMIT" default:"0"` // 0 syncs order books for the whole catalog
	PauseSeconds      float64 `envconfig:"SYNC_PAUSE_SECONDS" default:"0.2"`
	APIBase           string  `envconfig:"SYNC_API_BASE" default:"https://api.warframe.market/v1"`
	FailurePolicy     string  `envconfig:"SYNC_FAILURE_POLICY" default:"abort"`
	AllowEmptyCatalog bool    `envconfig:"SYNC_ALLOW_EMPTY_CATALOG" default:"false"`
}

// Pause returns the minimum interval between outbound requests.
func (s *SyncConfig) Pause() time.Duration {
	return time.Duration(s.PauseSeconds * float64(time.Second))
}

// HTTPConfig holds marketplace client settings.
type HTTPConfig struct {
	Timeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	Language    string        `envconfig:"HTTP_LANGUAGE" default:"en"`
	Platform    string        `envconfig:"HTTP_PLATFORM" default:"pc"`
	UserAgent   string        `envconfig:"HTTP_USER_AGENT" default:"wfmarket-sync/1.0"`
	MaxAttempts int           `envconfig:"HTTP_MAX_ATTEMPTS" default:"1"`
	BackoffMin  time.Duration `envconfig:"HTTP_BACKOFF_MIN" default:"500ms"`
	BackoffMax  time.Duration `envconfig:"HTTP_BACKOFF_MAX" default:"10s"`
}

// StoreConfig selects and configures the relational store.
type StoreConfig struct {
	Type string `envconfig:"STORE_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	// PostgreSQL settings
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresName     string `envconfig:"POSTGRES_DB" default:"wfmarket"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASS" default:""`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	// MySQL settings
	MySQLHost     string `envconfig:"MYSQL_HOST" default:"localhost"`
	MySQLPort     int    `envconfig:"MYSQL_PORT" default:"3306"`
	MySQLName     string `envconfig:"MYSQL_DB" default:"wfmarket"`
	MySQLUser     string `envconfig:"MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"MYSQL_PASS" default:""`
}

// PostgresDSN returns the PostgreSQL connection string.
func (s *StoreConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.PostgresUser, s.PostgresPassword, s.PostgresHost, s.PostgresPort, s.PostgresName, s.PostgresSSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (s *StoreConfig) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = s.MySQLUser
	mc.Passwd = s.MySQLPassword
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", s.MySQLHost, s.MySQLPort)
	mc.DBName = s.MySQLName
	mc.ParseTime = true
	return mc.FormatDSN()
}

// CacheConfig holds sync report cache settings.
type CacheConfig struct {
	Type      string        `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	ReportTTL time.Duration `envconfig:"REPORT_TTL" default:"168h"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"wfmarket"`
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// ServerConfig holds query API server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that envconfig cannot express as types.
func (c *Config) Validate() error {
	var errs []string

	if c.Sync.Limit < 0 {
		errs = append(errs, "limit must not be negative")
	}
	if c.Sync.PauseSeconds < 0 {
		errs = append(errs, "pause must not be negative")
	}
	if strings.TrimSpace(c.Sync.APIBase) == "" {
		errs = append(errs, "api base is required")
	}
	switch c.Sync.FailurePolicy {
	case FailurePolicyAbort, FailurePolicyContinue:
	default:
		errs = append(errs, fmt.Sprintf("unknown failure policy %q", c.Sync.FailurePolicy))
	}
	if c.HTTP.MaxAttempts < 1 {
		errs = append(errs, "http max attempts must be at least 1")
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, "http timeout must be positive")
	}
	switch c.Store.Type {
	case "sqlite", "postgres", "postgresql", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("unknown store type %q", c.Store.Type))
	}
	if c.Store.Type == "sqlite" && c.Sync.DatabasePath == "" {
		errs = append(errs, "database path is required for sqlite")
	}
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("unknown cache type %q", c.Cache.Type))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}
