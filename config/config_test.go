package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("expected 20 max conns, got %d", cfg.Database.MaxConns)
	}
	if cfg.Database.IdleTimeout != 30*time.Second {
		t.Errorf("expected 30s idle timeout, got %v", cfg.Database.IdleTimeout)
	}
	if cfg.Database.ConnectTimeout != 2*time.Second {
		t.Errorf("expected 2s connect timeout, got %v", cfg.Database.ConnectTimeout)
	}
	if cfg.RateLimit.Enabled() {
		t.Error("rate limiting should be disabled without REDIS_ADDR")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/todos.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.HTTP.Address() != "0.0.0.0:8081" {
		t.Errorf("unexpected address %q", cfg.HTTP.Address())
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected sqlite driver, got %q", cfg.Database.Driver)
	}
	if !cfg.RateLimit.Enabled() || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("unexpected rate limit config %+v", cfg.RateLimit)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "env: production\nhttp:\n  port: 9000\ndatabase:\n  name: filedb\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsProduction() {
		t.Errorf("expected production env, got %q", cfg.Env)
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Name != "filedb" {
		t.Errorf("expected filedb, got %q", cfg.Database.Name)
	}
}

func TestLoad_MissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("PORT", "4000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 4000 {
		t.Errorf("expected port 4000, got %d", cfg.HTTP.Port)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "mysql") {
		t.Errorf("error should name the driver: %v", err)
	}
}

func TestLoad_DriverIsCaseInsensitive(t *testing.T) {
	t.Setenv("DB_DRIVER", " SQLite ")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected %q, got %q", DriverSQLite, cfg.Database.Driver)
	}
}

func TestValidate_DriverMatchedExactly(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Database.Driver = "SQLite"
	if err := cfg.Validate(); err == nil {
		t.Error("expected an un-normalized driver to be rejected")
	}
}

func TestValidate_AcquireTimeoutForEveryDriver(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			t.Setenv("DB_DRIVER", driver)
			t.Setenv("DB_ACQUIRE_TIMEOUT", "0s")

			_, err := Load("")
			if err == nil {
				t.Fatal("expected error for zero acquire timeout")
			}
			if !strings.Contains(err.Error(), "DB_ACQUIRE_TIMEOUT") {
				t.Errorf("error should name DB_ACQUIRE_TIMEOUT: %v", err)
			}
		})
	}
}

func TestLoad_LogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != LogLevelWarn {
		t.Errorf("expected %q, got %q", LogLevelWarn, cfg.LogLevel)
	}

	t.Setenv("LOG_LEVEL", "verbose")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("expected LOG_LEVEL error, got %v", err)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		Name:     "tododb",
		User:     "todouser",
		Password: "p@ss",
		SSLMode:  "disable",
	}

	want := "postgres://todouser:p%40ss@db:5433/tododb?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	d.URL = "postgres://override/db"
	if got := d.DSN(); got != "postgres://override/db" {
		t.Errorf("DATABASE_URL should win, got %q", got)
	}
}
