// Package config loads studyloop settings from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds all runtime configuration.
type Config struct {
	// Store selects the storage backend: "sqlite" or "mongo".
	Store string

	// DBPath is the SQLite database file. Empty means the default XDG path.
	DBPath string

	Mongo MongoConfig
	HTTP  HTTPConfig
	AMQP  AMQPConfig
	Log   LogConfig

	// CallTimeout bounds every session engine operation. Default: 5s.
	CallTimeout time.Duration
}

// MongoConfig holds the MongoDB backend settings.
type MongoConfig struct {
	URI      string
	Database string // Default: "studyloop"

	// Transactions wraps each engine write in a multi-document
	// transaction. Requires a replica set.
	Transactions bool
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr            string // Default: ":8080"
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// AMQPConfig holds the event publisher settings. An empty URL disables
// publishing.
type AMQPConfig struct {
	URL      string
	Exchange string // Default: "studyloop.events"
}

// LogConfig selects the log level and format ("json" or "text").
type LogConfig struct {
	Level  string
	Format string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreSQLite,
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "studyloop",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		AMQP: AMQPConfig{
			Exchange: "studyloop.events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		CallTimeout: 5 * time.Second,
	}
}

// Load reads a .env file from the working directory if one exists and
// then builds a Config from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return ConfigFromEnv()
}

// ConfigFromEnv builds a Config from STUDYLOOP_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("STUDYLOOP_STORE"); v != "" {
		cfg.Store = strings.ToLower(v)
	}
	if v := os.Getenv("STUDYLOOP_DB"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("STUDYLOOP_MONGO_URI"); v != "" {
		cfg.Mongo.URI = v
	}
	if v := os.Getenv("STUDYLOOP_MONGO_DATABASE"); v != "" {
		cfg.Mongo.Database = v
	}

	if v := os.Getenv("STUDYLOOP_MONGO_TRANSACTIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("STUDYLOOP_MONGO_TRANSACTIONS=%q is not a boolean: %w", v, err)
		}
		cfg.Mongo.Transactions = b
	}

	if v := os.Getenv("STUDYLOOP_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("STUDYLOOP_CORS_ORIGINS"); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("STUDYLOOP_AMQP_URL"); v != "" {
		cfg.AMQP.URL = v
	}
	if v := os.Getenv("STUDYLOOP_AMQP_EXCHANGE"); v != "" {
		cfg.AMQP.Exchange = v
	}

	if v := os.Getenv("STUDYLOOP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("STUDYLOOP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = strings.ToLower(v)
	}

	var err error
	if cfg.CallTimeout, err = durationEnv("STUDYLOOP_CALL_TIMEOUT", cfg.CallTimeout); err != nil {
		return cfg, err
	}
	if cfg.HTTP.ShutdownTimeout, err = durationEnv("STUDYLOOP_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("STUDYLOOP_MONGO_URI is required for the mongo store")
		}
		if c.Mongo.Database == "" {
			return fmt.Errorf("STUDYLOOP_MONGO_DATABASE is required for the mongo store")
		}
	default:
		return fmt.Errorf("unknown store: %q", c.Store)
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %s", c.CallTimeout)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	return nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s=%q is not a valid duration: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
