package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/source"
)

// DefaultSourceURL is the published vocabulary sheet loaded when no source is selected.
const DefaultSourceURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTm0yTZkHyweym1ITZbZGg2AJJByj35kMoCXggEwDuRwFwtLNqyhuEaZsNBS_fzbDseq8f8lrnYI3MU/pub?gid=1046747301&single=true&output=csv"

const (
	BackendSQLite = "sqlite"
	BackendDiskv  = "diskv"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	DefaultSourceURL   string
	ProgressBackend    string
	ProgressDir        string
	CardIdentity       string
	FetchTimeout       time.Duration
	RefreshInterval    time.Duration
	RefreshWorkerCount int
	RefreshQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:vocabflash.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		DefaultSourceURL:   envOr("DEFAULT_SOURCE_URL", DefaultSourceURL),
		ProgressBackend:    strings.ToLower(envOr("PROGRESS_BACKEND", BackendSQLite)),
		ProgressDir:        envOr("PROGRESS_DIR", "vocabflash-progress"),
		CardIdentity:       envOr("CARD_IDENTITY", "composite"),
		FetchTimeout:       envDurationOr("FETCH_TIMEOUT", 0),
		RefreshInterval:    envDurationOr("REFRESH_INTERVAL", 0),
		RefreshWorkerCount: envIntOr("REFRESH_WORKER_COUNT", 1),
		RefreshQueueSize:   envIntOr("REFRESH_QUEUE_SIZE", 16),
	}
}

// Validate reports every invalid setting in a single error.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	switch c.ProgressBackend {
	case BackendSQLite:
		if strings.TrimSpace(c.DBPath) == "" {
			errs = append(errs, errors.New("DB_PATH cannot be empty"))
		}
	case BackendDiskv:
		if strings.TrimSpace(c.ProgressDir) == "" {
			errs = append(errs, errors.New("PROGRESS_DIR cannot be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("PROGRESS_BACKEND must be %q or %q (got %q)", BackendSQLite, BackendDiskv, c.ProgressBackend))
	}
	switch strings.ToLower(c.CardIdentity) {
	case "composite", "positional":
	default:
		errs = append(errs, fmt.Errorf("CARD_IDENTITY must be composite or positional (got %q)", c.CardIdentity))
	}
	if c.DefaultSourceURL != "" {
		if err := source.ValidateURL(c.DefaultSourceURL); err != nil {
			errs = append(errs, fmt.Errorf("DEFAULT_SOURCE_URL must be an http or https URL (got %q)", c.DefaultSourceURL))
		}
	}
	if c.FetchTimeout < 0 {
		errs = append(errs, errors.New("FETCH_TIMEOUT cannot be negative"))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, errors.New("REFRESH_INTERVAL cannot be negative"))
	}
	if c.RefreshWorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_WORKER_COUNT must be positive (got %d)", c.RefreshWorkerCount))
	}
	if c.RefreshQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_QUEUE_SIZE must be positive (got %d)", c.RefreshQueueSize))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
