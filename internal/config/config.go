// Package config loads runtime configuration from built-in defaults, an
// optional YAML file, the environment (including a .env file) and command
// line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config centralises runtime configuration.
type Config struct {
	HTTP       HTTPConfig     `koanf:"http"`
	Database   DatabaseConfig `koanf:"database"`
	Redis      RedisConfig    `koanf:"redis"`
	Log        LogConfig      `koanf:"log"`
	Tracing    TracingConfig  `koanf:"tracing"`
	JWTSecret  string         `koanf:"jwt_secret"`
	BcryptCost int            `koanf:"bcrypt_cost"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Port               string   `koanf:"port"`
	AllowedOrigins     []string `koanf:"allowed_origins"`
	ReadTimeoutSec     int      `koanf:"read_timeout"`
	WriteTimeoutSec    int      `koanf:"write_timeout"`
	IdleTimeoutSec     int      `koanf:"idle_timeout"`
	ShutdownTimeoutSec int      `koanf:"shutdown_timeout"`
	MaxBodyBytes       int64    `koanf:"max_body_bytes"`
}

// DatabaseConfig selects and addresses the store.
type DatabaseConfig struct {
	Driver     string `koanf:"driver"`
	URL        string `koanf:"url"`
	SQLitePath string `koanf:"sqlite_path"`
	// AutoMigrate applies pending Postgres migrations on serve.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// RedisConfig enables the card feed cache when URL is set.
type RedisConfig struct {
	URL string        `koanf:"url"`
	TTL time.Duration `koanf:"ttl"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// TracingConfig selects where finished request spans are exported:
// none, stdout or otlp.
type TracingConfig struct {
	Exporter string `koanf:"exporter"`
}

// Addr returns the listen address for the configured port.
func (c HTTPConfig) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// Options selects the optional configuration sources.
type Options struct {
	// ConfigFile is a YAML file; empty skips it.
	ConfigFile string
	// DotEnv is a .env file read beneath the process environment; a missing
	// file is skipped.
	DotEnv string
	// Flags overrides everything else for flags the user actually set.
	Flags *pflag.FlagSet
}

var defaults = map[string]any{
	"http.port":             "8080",
	"http.allowed_origins":  []string{"*"},
	"http.read_timeout":     15,
	"http.write_timeout":    15,
	"http.idle_timeout":     60,
	"http.shutdown_timeout": 10,
	"http.max_body_bytes":   int64(1 << 20),
	"database.driver":       DriverPostgres,
	"database.sqlite_path":  "photoshare.db",
	"database.auto_migrate": true,
	"redis.ttl":             "1m",
	"log.format":            "json",
	"log.level":             "info",
	"tracing.exporter":      "none",
	"bcrypt_cost":           10,
}

// flagKeys maps command line flag names onto configuration keys.
var flagKeys = map[string]string{
	"port":            "http.port",
	"database-driver": "database.driver",
	"database-url":    "database.url",
	"sqlite-path":     "database.sqlite_path",
	"auto-migrate":    "database.auto_migrate",
	"redis-url":       "redis.url",
	"log-format":      "log.format",
	"log-level":       "log.level",
	"trace-exporter":  "tracing.exporter",
}

// Load reads configuration from all sources and validates the result.
func Load(opts Options) (Config, error) {
	cfg, err := Read(opts)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read merges all sources without validating the result. Commands that need
// only part of the configuration validate that part themselves.
func Read(opts Options) (Config, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", opts.ConfigFile, err)
		}
	}

	dotenvLayer, err := loadDotEnv(opts.DotEnv)
	if err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", opts.DotEnv, err)
	}
	if err := loadEnv(k, newLookup(dotenvLayer)); err != nil {
		return Config{}, err
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.HTTP.Port == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.Tracing.Exporter)
	}
	return nil
}

// Validate checks that the selected driver is addressable.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.URL == "" {
			return fmt.Errorf("database configuration missing: provide DATABASE_URL or PG* env vars")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Driver)
	}
	return nil
}

// loadEnv copies recognised environment variables into k.
func loadEnv(k *koanf.Koanf, env lookup) error {
	port := env("HTTP_PORT")
	if port == "" {
		port = env("PORT")
	}

	values := map[string]any{}
	setString := func(key, value string) {
		if value != "" {
			values[key] = value
		}
	}
	setInt := func(key, name string) error {
		raw := env(name)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		values[key] = n
		return nil
	}

	setString("http.port", port)
	setString("database.driver", strings.ToLower(env("DATABASE_DRIVER")))
	setString("database.url", resolveDatabaseURL(env))
	setString("database.sqlite_path", env("SQLITE_PATH"))
	setString("jwt_secret", env("JWT_SECRET"))
	setString("redis.url", env("REDIS_URL"))
	setString("redis.ttl", env("REDIS_TTL"))
	setString("log.format", env("LOG_FORMAT"))
	setString("log.level", env("LOG_LEVEL"))
	setString("tracing.exporter", strings.ToLower(env("TRACING_EXPORTER")))
	if origins := env("CORS_ALLOWED_ORIGINS"); origins != "" {
		values["http.allowed_origins"] = splitCSV(origins)
	}
	if raw := env("DATABASE_AUTO_MIGRATE"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("DATABASE_AUTO_MIGRATE: %w", err)
		}
		values["database.auto_migrate"] = b
	}

	for key, name := range map[string]string{
		"http.read_timeout":     "HTTP_READ_TIMEOUT",
		"http.write_timeout":    "HTTP_WRITE_TIMEOUT",
		"http.idle_timeout":     "HTTP_IDLE_TIMEOUT",
		"http.shutdown_timeout": "HTTP_SHUTDOWN_TIMEOUT",
		"bcrypt_cost":           "BCRYPT_COST",
	} {
		if err := setInt(key, name); err != nil {
			return err
		}
	}

	for key, value := range values {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return nil
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}
