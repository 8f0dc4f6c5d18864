// Package config handles loading and validating Ligi configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

func init() {
	// Load .env file if it exists
	_ = godotenv.Load()
}

// Config is the root configuration for Ligi.
type Config struct {
	DataDir       string               `json:"data_dir,omitempty" yaml:"data_dir,omitempty"` // Persistent data directory. Default: ~/.ligi/data. Override: LIGI_DATA_DIR env var.
	Server        ServerConfig         `json:"server" yaml:"server"`
	Storage       *StorageConfig       `json:"storage,omitempty" yaml:"storage,omitempty"` // nil = SQLite default (derived from data dir).
	Auth          AuthConfig           `json:"auth" yaml:"auth"`
	Roster        RosterConfig         `json:"roster" yaml:"roster"`
	Provisioning  ProvisioningConfig   `json:"provisioning" yaml:"provisioning"`
	Observability *ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"` // nil = observability disabled.
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	ListenAddr          string `json:"listen_addr" yaml:"listen_addr"`                       // Default: ":8080".
	EnableDocs          bool   `json:"enable_docs" yaml:"enable_docs"`                       // Serve OpenAPI docs.
	MaxRequestSizeBytes int64  `json:"max_request_size_bytes" yaml:"max_request_size_bytes"` // 0 = 1 MB default.
	SeedDemoData        bool   `json:"seed_demo_data" yaml:"seed_demo_data"`                 // Insert demo teams/students when the league is empty.
}

// Addr returns the listen address, defaulting to ":8080".
func (s *ServerConfig) Addr() string {
	if s.ListenAddr != "" {
		return s.ListenAddr
	}
	return ":8080"
}

// StorageConfig configures the persistence backend.
// When nil, defaults to SQLite with the database path derived from the data dir.
type StorageConfig struct {
	Driver   string                 `json:"driver" yaml:"driver"`                         // "sqlite" (default) or "postgres".
	SQLite   *SQLiteStorageConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`     // SQLite-specific settings.
	Postgres *PostgresStorageConfig `json:"postgres,omitempty" yaml:"postgres,omitempty"` // PostgreSQL-specific settings.
}

// StorageDriver returns the configured driver, defaulting to "sqlite".
func (s *StorageConfig) StorageDriver() string {
	if s != nil && s.Driver != "" {
		return s.Driver
	}
	return "sqlite"
}

// SQLiteStorageConfig holds SQLite-specific settings.
type SQLiteStorageConfig struct {
	Path        string `json:"path,omitempty" yaml:"path,omitempty"` // Database file path. Default: <data_dir>/ligi.db.
	JournalMode string `json:"journal_mode" yaml:"journal_mode"`     // "wal" (default), "delete", "truncate", etc.
}

// PostgresStorageConfig holds PostgreSQL-specific settings.
type PostgresStorageConfig struct {
	DSN              string `json:"dsn" yaml:"dsn"`                                 // Override: LIGI_DB_DSN env var.
	MaxOpenConns     int    `json:"max_open_conns" yaml:"max_open_conns"`           // Default: 25
	MaxIdleConns     int    `json:"max_idle_conns" yaml:"max_idle_conns"`           // Default: 5
	ConnMaxLifetimeS int    `json:"conn_max_lifetime_s" yaml:"conn_max_lifetime_s"` // Default: 1800 (30 min)
}

// AuthConfig configures the request gate and token issuing.
type AuthConfig struct {
	Mode             string `json:"mode" yaml:"mode"`                                     // "required" (default) or "open" (allow-all, local development only).
	TokenSecret      string `json:"token_secret,omitempty" yaml:"token_secret,omitempty"` // HMAC secret for bearer tokens. Override: LIGI_TOKEN_SECRET env var.
	TokenTTLHours    int    `json:"token_ttl_hours" yaml:"token_ttl_hours"`               // Default: 12.
	BcryptCost       int    `json:"bcrypt_cost" yaml:"bcrypt_cost"`                       // Default: bcrypt.DefaultCost.
	ServiceCredsJSON string `json:"-" yaml:"-"`                                           // Serialized service credential document. Env only: LIGI_SERVICE_CREDENTIALS_JSON.
}

// GateMode returns the configured gate mode, defaulting to "required".
func (a *AuthConfig) GateMode() string {
	if a.Mode != "" {
		return a.Mode
	}
	return "required"
}

// TokenTTL returns the bearer token lifetime with a default of 12h.
func (a *AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLHours > 0 {
		return time.Duration(a.TokenTTLHours) * time.Hour
	}
	return 12 * time.Hour
}

// RosterConfig describes the fixed account roster.
// Counts and naming templates are configuration data so roster changes
// don't require redeploying logic.
type RosterConfig struct {
	ServantCount          int    `json:"servant_count" yaml:"servant_count"`                       // Default: 100.
	AdminCount            int    `json:"admin_count" yaml:"admin_count"`                           // Default: 50.
	ServantUsernamePrefix string `json:"servant_username_prefix" yaml:"servant_username_prefix"`   // Default: "servantEdady".
	AdminUsernamePrefix   string `json:"admin_username_prefix" yaml:"admin_username_prefix"`       // Default: "adminEdady".
	EmailDomain           string `json:"email_domain" yaml:"email_domain"`                         // Default: "e3dady.com".
	ServantDefaultClassID int    `json:"servant_default_class_id" yaml:"servant_default_class_id"` // Default: 1.
}

// Servants returns the servant count with a default of 100.
func (r *RosterConfig) Servants() int {
	if r.ServantCount > 0 {
		return r.ServantCount
	}
	return 100
}

// Admins returns the admin count with a default of 50.
func (r *RosterConfig) Admins() int {
	if r.AdminCount > 0 {
		return r.AdminCount
	}
	return 50
}

// ServantPrefix returns the servant username prefix with its default.
func (r *RosterConfig) ServantPrefix() string {
	if r.ServantUsernamePrefix != "" {
		return r.ServantUsernamePrefix
	}
	return "servantEdady"
}

// AdminPrefix returns the admin username prefix with its default.
func (r *RosterConfig) AdminPrefix() string {
	if r.AdminUsernamePrefix != "" {
		return r.AdminUsernamePrefix
	}
	return "adminEdady"
}

// Domain returns the email domain with its default.
func (r *RosterConfig) Domain() string {
	if r.EmailDomain != "" {
		return r.EmailDomain
	}
	return "e3dady.com"
}

// DefaultClassID returns the servant default class id with its default of 1.
func (r *RosterConfig) DefaultClassID() int {
	if r.ServantDefaultClassID > 0 {
		return r.ServantDefaultClassID
	}
	return 1
}

// ProvisioningConfig configures provisioner runs and artifacts.
type ProvisioningConfig struct {
	ArtifactsDir string `json:"artifacts_dir,omitempty" yaml:"artifacts_dir,omitempty"` // CSV output directory. Default: <data_dir>/artifacts.
	SyncSchedule string `json:"sync_schedule,omitempty" yaml:"sync_schedule,omitempty"` // Cron expression for periodic roster re-sync in serve mode. Empty = disabled.
}

// ObservabilityConfig configures metrics, tracing, and health checks.
// When nil, all observability features are disabled with zero overhead.
type ObservabilityConfig struct {
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Tracing *TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Health  *HealthConfig  `json:"health,omitempty" yaml:"health,omitempty"`
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"` // Default: "/metrics"
}

// TracingConfig configures OpenTelemetry distributed tracing.
type TracingConfig struct {
	Enabled     bool    `json:"enabled" yaml:"enabled"`
	Endpoint    string  `json:"endpoint" yaml:"endpoint"`         // OTLP endpoint, e.g. "localhost:4317"
	Protocol    string  `json:"protocol" yaml:"protocol"`         // "grpc" or "http". Default: "grpc"
	ServiceName string  `json:"service_name" yaml:"service_name"` // Default: "ligi"
	SampleRate  float64 `json:"sample_rate" yaml:"sample_rate"`   // 0.0–1.0. Default: 1.0
	Insecure    bool    `json:"insecure" yaml:"insecure"`         // Skip TLS for dev
}

// HealthConfig configures dependency health checks for readiness probes.
type HealthConfig struct {
	IncludeDB bool `json:"include_db" yaml:"include_db"`
}

// DefaultConfigPath returns the default config file path (~/.ligi/config.json).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "configs/ligi.json" // fallback for environments without a home dir
	}
	return filepath.Join(home, ".ligi", "config.json")
}

// Load reads a JSON or YAML config file and returns a validated Config.
// The format is detected by file extension: .yml/.yaml for YAML, everything
// else for JSON. A missing file at the default path is not an error — the
// built-in defaults apply. Environment variables take precedence over
// config file values.
func Load(path string) (*Config, error) {
	var cfg Config

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path %s: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	switch {
	case os.IsNotExist(err) && path == DefaultConfigPath():
		// Zero-config startup: SQLite in the data dir, defaults below.
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", resolved, err)
	default:
		switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
		case ".yml", ".yaml":
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing YAML config %s: %w", resolved, err)
			}
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing JSON config %s: %w", resolved, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.applyServiceCredentials(); err != nil {
		return nil, err
	}

	// Resolve DataDir default.
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DataDir = filepath.Join(home, ".ligi", "data")
		} else {
			cfg.DataDir = "data"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies LIGI_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if envDD := os.Getenv("LIGI_DATA_DIR"); envDD != "" {
		cfg.DataDir = envDD
	}
	if envAddr := os.Getenv("LIGI_LISTEN_ADDR"); envAddr != "" {
		cfg.Server.ListenAddr = envAddr
	}
	if envSecret := os.Getenv("LIGI_TOKEN_SECRET"); envSecret != "" {
		cfg.Auth.TokenSecret = envSecret
	}
	if envDSN := os.Getenv("LIGI_DB_DSN"); envDSN != "" {
		if cfg.Storage == nil {
			cfg.Storage = &StorageConfig{Driver: "postgres"}
		}
		if cfg.Storage.Postgres == nil {
			cfg.Storage.Postgres = &PostgresStorageConfig{}
		}
		cfg.Storage.Postgres.DSN = envDSN
	}
	// Serialized service credential document; when absent, ambient
	// credentials (the local store) are used.
	if envCreds := os.Getenv("LIGI_SERVICE_CREDENTIALS_JSON"); envCreds != "" {
		cfg.Auth.ServiceCredsJSON = envCreds
	}
}

// ServiceCredentials is the credential document injected through
// LIGI_SERVICE_CREDENTIALS_JSON. Deployments that hand the service one
// opaque secret use it instead of spreading driver and DSN across
// separate variables.
type ServiceCredentials struct {
	Driver string `json:"driver"` // "postgres" (default) or "sqlite".
	DSN    string `json:"dsn"`    // Connection string, or the database file path for sqlite.
}

// applyServiceCredentials promotes the serialized credential document into
// the storage config. It runs after the plain env overrides, so the
// document wins over LIGI_DB_DSN.
func (c *Config) applyServiceCredentials() error {
	raw := c.Auth.ServiceCredsJSON
	if raw == "" {
		return nil
	}
	var creds ServiceCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return fmt.Errorf("parsing LIGI_SERVICE_CREDENTIALS_JSON: %w", err)
	}
	if creds.DSN == "" {
		return fmt.Errorf("LIGI_SERVICE_CREDENTIALS_JSON is missing the dsn field")
	}
	driver := creds.Driver
	if driver == "" {
		driver = "postgres"
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	c.Storage.Driver = driver
	switch driver {
	case "postgres":
		if c.Storage.Postgres == nil {
			c.Storage.Postgres = &PostgresStorageConfig{}
		}
		c.Storage.Postgres.DSN = creds.DSN
	case "sqlite":
		if c.Storage.SQLite == nil {
			c.Storage.SQLite = &SQLiteStorageConfig{}
		}
		c.Storage.SQLite.Path = creds.DSN
	default:
		return fmt.Errorf("LIGI_SERVICE_CREDENTIALS_JSON driver must be \"postgres\" or \"sqlite\", got %q", driver)
	}
	return nil
}

// validate checks cross-field constraints.
func (c *Config) validate() error {
	switch mode := c.Auth.GateMode(); mode {
	case "required", "open":
	default:
		return fmt.Errorf("auth.mode must be \"required\" or \"open\", got %q", mode)
	}
	if c.Storage.StorageDriver() == "postgres" {
		if c.Storage == nil || c.Storage.Postgres == nil || c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required when storage.driver is postgres")
		}
	}
	if c.Auth.GateMode() == "required" && c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required when auth.mode is \"required\" (set LIGI_TOKEN_SECRET)")
	}
	return nil
}

// SQLitePath returns the SQLite database path, derived from DataDir if unset.
func (c *Config) SQLitePath() string {
	if c.Storage != nil && c.Storage.SQLite != nil && c.Storage.SQLite.Path != "" {
		return c.Storage.SQLite.Path
	}
	return filepath.Join(c.DataDir, "ligi.db")
}

// ArtifactsDir returns the provisioning artifacts directory, derived from
// DataDir if unset.
func (c *Config) ArtifactsDir() string {
	if c.Provisioning.ArtifactsDir != "" {
		return c.Provisioning.ArtifactsDir
	}
	return filepath.Join(c.DataDir, "artifacts")
}

// resolvePath expands ~ to the user home directory and returns an absolute path.
func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
