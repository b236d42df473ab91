// Package config loads service settings from environment variables plus an
// optional YAML source-catalog file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/space-weather-ingest/internal/domain"
)

// Store backends selectable via STORE_BACKEND.
const (
	StoreKafka  = "kafka"
	StoreSQLite = "sqlite"
	StoreNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	FetchTimeout  time.Duration
	FetchInterval time.Duration

	// EnabledSources come from the source catalog file, or default to the
	// full closed set. Order is fetch order.
	EnabledSources   []domain.Source
	BaseURLOverrides map[domain.Source]string

	NASAAPIKey string

	PersistEnabled bool
	StoreBackend   string

	SQLitePath string

	KafkaBrokers       []string
	KafkaReportTopic   string
	KafkaFetchLogTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := durationEnv("FETCH_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	fetchInterval, err := durationEnv("FETCH_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		FetchTimeout:    fetchTimeout,
		FetchInterval:   fetchInterval,

		EnabledSources:   domain.AllSources(),
		BaseURLOverrides: map[domain.Source]string{},

		NASAAPIKey: os.Getenv("NASA_API_KEY"),

		PersistEnabled: envOrDefault("PERSIST_ENABLED", "true") == "true",
		StoreBackend:   envOrDefault("STORE_BACKEND", StoreSQLite),

		SQLitePath: envOrDefault("SQLITE_PATH", "data/space-weather.db"),

		KafkaBrokers:       splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic:   envOrDefault("KAFKA_REPORT_TOPIC", "normalized-reports"),
		KafkaFetchLogTopic: envOrDefault("KAFKA_FETCH_LOG_TOPIC", "fetch-audit-log"),
	}

	if path := os.Getenv("SOURCES_FILE"); path != "" {
		if err := cfg.loadSourceCatalog(path); err != nil {
			return nil, err
		}
	}

	switch cfg.StoreBackend {
	case StoreKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("STORE_BACKEND is kafka but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaReportTopic == "" || cfg.KafkaFetchLogTopic == "" {
			return nil, errors.New("kafka topics must not be empty")
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("STORE_BACKEND is sqlite but SQLITE_PATH is empty")
		}
	case StoreNone:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if len(cfg.EnabledSources) == 0 {
		return nil, errors.New("source catalog enables no sources")
	}

	return cfg, nil
}

// sourceCatalog is the YAML shape of the SOURCES_FILE. A missing enabled
// field defaults to true so a catalog can list overrides without toggling.
type sourceCatalog struct {
	Sources []struct {
		ID      string `yaml:"id"`
		Enabled *bool  `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
	} `yaml:"sources"`
}

// loadSourceCatalog replaces the default source set with the catalog's
// enabled entries, preserving file order, and collects base URL overrides.
func (c *Config) loadSourceCatalog(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source catalog: %w", err)
	}

	var catalog sourceCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("parse source catalog %s: %w", path, err)
	}

	var enabled []domain.Source
	for _, entry := range catalog.Sources {
		src, err := domain.ParseSource(entry.ID)
		if err != nil {
			return fmt.Errorf("source catalog %s: %w", path, err)
		}
		if entry.BaseURL != "" {
			c.BaseURLOverrides[src] = entry.BaseURL
		}
		if entry.Enabled == nil || *entry.Enabled {
			enabled = append(enabled, src)
		}
	}
	c.EnabledSources = enabled
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
