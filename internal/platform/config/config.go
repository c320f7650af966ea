// Package config loads service settings from the environment, optionally
// seeded from a dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when a variable is unset or empty.
const (
	DefaultPort                = "8080"
	DefaultGreetingDelay       = 2 * time.Second
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultHealthMaxGoroutines = 10000
	DefaultLogLevel            = "info"
	DefaultEnvFile             = ".env"
)

// Config holds the runtime settings of the greeting service.
type Config struct {
	Port                string
	GreetingDelay       time.Duration
	ShutdownTimeout     time.Duration
	HealthMaxGoroutines int
	LogLevel            string
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Load reads the dotenv file named by ENV_FILE (default .env) if it exists and
// then parses the environment. Variables already set in the process take
// precedence over the file.
func Load() (Config, error) {
	envFile := getenv("ENV_FILE", DefaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Port:     get("PORT", DefaultPort),
		LogLevel: get("LOG_LEVEL", DefaultLogLevel),
	}

	var err error
	if cfg.GreetingDelay, err = parseDuration("GREETING_DELAY", get("GREETING_DELAY", ""), DefaultGreetingDelay); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", get("SHUTDOWN_TIMEOUT", ""), DefaultShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HealthMaxGoroutines, err = parsePositiveInt("HEALTH_MAX_GOROUTINES", get("HEALTH_MAX_GOROUTINES", ""), DefaultHealthMaxGoroutines); err != nil {
		return Config{}, err
	}
	if _, err := strconv.ParseUint(cfg.Port, 10, 16); err != nil {
		return Config{}, fmt.Errorf("PORT: invalid port %q: %w", cfg.Port, err)
	}
	return cfg, nil
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key, raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return n, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
