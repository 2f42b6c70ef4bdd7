package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	BaseURL     string
	CacheDir    string
	DownloadDir string
	TSVDir      string
	IndexFile   string
	StatesFile  string

	CacheMaxAge  time.Duration
	HTTPTimeout  time.Duration
	FetchRate    float64
	FetchEnabled bool
	UserAgent    string

	LogLevel  string
	LogFormat string

	// Optional sinks; an empty value disables the sink.
	KafkaBrokers    []string
	KafkaTopic      string
	SQLitePath      string
	XLSXPath        string
	MetricsTextfile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	cacheMaxAge, err := parseDuration("CACHE_MAX_AGE", "1h")
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchRate, err := parseFetchRate()
	if err != nil {
		return nil, err
	}
	fetchEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("FETCH_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid FETCH_ENABLED")
	}

	cacheDir := sharedcfg.EnvOrDefault("CACHE_DIR", filepath.Join("cache", "de-divi"))
	dataDir := filepath.Join("data", "de-divi")

	cfg := &Config{
		BaseURL:     sharedcfg.EnvOrDefault("DIVI_BASE_URL", "https://www.divi.de"),
		CacheDir:    cacheDir,
		DownloadDir: sharedcfg.EnvOrDefault("DOWNLOAD_DIR", filepath.Join(dataDir, "downloaded")),
		TSVDir:      sharedcfg.EnvOrDefault("TSV_DIR", filepath.Join(dataDir, "tsv")),
		IndexFile:   sharedcfg.EnvOrDefault("INDEX_FILE", filepath.Join(cacheDir, "de-divi-V3.json")),
		StatesFile:  sharedcfg.EnvOrDefault("STATES_FILE", filepath.Join(cacheDir, "de-divi-V3-states.json")),

		CacheMaxAge:  cacheMaxAge,
		HTTPTimeout:  httpTimeout,
		FetchRate:    fetchRate,
		FetchEnabled: fetchEnabled,
		UserAgent:    sharedcfg.EnvOrDefault("USER_AGENT", "divi-occupancy-etl/1.0"),

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),

		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "divi-region-occupancy"),
		SQLitePath:      os.Getenv("SQLITE_PATH"),
		XLSXPath:        os.Getenv("XLSX_PATH"),
		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),
	}
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(raw)
	}

	if cfg.BaseURL == "" {
		return nil, errors.New("DIVI_BASE_URL is required")
	}
	if cfg.DownloadDir == "" {
		return nil, errors.New("DOWNLOAD_DIR is required")
	}
	if cfg.TSVDir == "" {
		return nil, errors.New("TSV_DIR is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether region records are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// ListingCacheFile is where the archive listing page is cached.
func (c *Config) ListingCacheFile() string {
	return filepath.Join(c.CacheDir, "list-csv-page-1.html")
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFetchRate() (float64, error) {
	r, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FETCH_RATE", "2"), 64)
	if err != nil || r <= 0 {
		return 0, errors.New("invalid FETCH_RATE")
	}
	return r, nil
}
