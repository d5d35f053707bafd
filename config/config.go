// Package config loads application settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Accepted LOG_LEVEL values.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type HTTPConfig struct {
	Host               string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port               int           `yaml:"port" env:"PORT" env-default:"3000"`
	CORSAllowedOrigins string        `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout        time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Address returns host:port for the listener.
func (h HTTPConfig) Address() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

type DatabaseConfig struct {
	Driver         string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	URL            string        `yaml:"url" env:"DATABASE_URL"`
	Host           string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name           string        `yaml:"name" env:"DB_NAME" env-default:"tododb"`
	User           string        `yaml:"user" env:"DB_USER" env-default:"todouser"`
	Password       string        `yaml:"password" env:"DB_PASSWORD" env-default:"todopass"`
	SSLMode        string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConns       int32         `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"20"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"DB_IDLE_TIMEOUT" env-default:"30s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"DB_CONNECT_TIMEOUT" env-default:"2s"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" env:"DB_ACQUIRE_TIMEOUT" env-default:"2s"`
	SQLitePath     string        `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"todos.db"`
	Debug          bool          `yaml:"debug" env:"DB_DEBUG" env-default:"false"`
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins over the
// individual DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type RateLimitConfig struct {
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	Requests      int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"100"`
	Window        time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	KeyPrefix     string        `yaml:"key_prefix" env:"RATE_LIMIT_PREFIX" env-default:"todo:ratelimit:"`
}

// Enabled reports whether a Redis address was configured.
func (r RateLimitConfig) Enabled() bool {
	return r.RedisAddr != ""
}

type Config struct {
	Env             string          `yaml:"env" env:"APP_ENV" env-default:"development"`
	LogLevel        string          `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	HTTP            HTTPConfig      `yaml:"http"`
	Database        DatabaseConfig  `yaml:"database"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// Load reads configPath when it exists and falls back to the environment
// alone when the path is empty or missing.
func Load(configPath string) (Config, error) {
	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read env: %w", err)
		}
		cfg.normalize()
		return cfg, cfg.Validate()
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return Config{}, fmt.Errorf("cannot read config %q: %w", configPath, err)
		}
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read env: %w", err)
		}
	}

	cfg.normalize()
	return cfg, cfg.Validate()
}

// normalize canonicalizes values that are matched exactly later on.
func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// MustLoad is Load that exits the process on failure.
func MustLoad(configPath string) Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.HTTP.Port))
	}

	// Both stores bound each call by the acquire timeout.
	if c.Database.AcquireTimeout <= 0 {
		errs = append(errs, errors.New("DB_ACQUIRE_TIMEOUT must be positive"))
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.MaxConns <= 0 {
			errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.Database.MaxConns))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver))
	}

	if c.RateLimit.Enabled() {
		if c.RateLimit.Requests <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must be positive"))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
		}
	}

	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
