package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
// It is bound into the registry as a shared-immutable service.
type Config struct {
	App   AppConfig
	Log   LogConfig
	State StateConfig
	S3    S3Config
}

type AppConfig struct {
	Name            string
	Env             string // local | production | testing
	Debug           bool
	URL             string
	Port            string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// StateConfig seeds the mutable demo state.
type StateConfig struct {
	Greeting string
	Subject  string
}

type S3Config struct {
	Bucket string
	Region string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:            env("APP_NAME", "GoIoC"),
			Env:             env("APP_ENV", "local"),
			Debug:           envBool("APP_DEBUG", false),
			URL:             env("APP_URL", "http://localhost"),
			Port:            env("APP_PORT", "1337"),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "text"),
		},
		State: StateConfig{
			Greeting: env("STATE_GREETING", "hello"),
			Subject:  env("STATE_SUBJECT", "world"),
		},
		S3: S3Config{
			Bucket: env("S3_BUCKET", "local-bucket"),
			Region: env("S3_REGION", "us-east-1"),
		},
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.App.Port }

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
