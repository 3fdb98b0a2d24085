package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DataDir holds the database, the run lock, and the archive bucket.
	DataDir string

	SPCBaseURL         string
	StormEventsBaseURL string
	HTTPTimeout        time.Duration

	// Daily feed polling.
	PollFirstYear int
	PollLastYear  int
	PollStartYear int
	PollInterval  time.Duration

	// Bulk archive backfill.
	BackfillMinYear int

	RetryBaseDelay time.Duration
	RadarCacheSize int

	// Summary notifications.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "storm.db")
}

// LockPath returns the advisory run-lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "stormrecon.lock")
}

// ArchiveDir returns the root of the local archive bucket.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.DataDir, "archive")
}

// LoadDotEnv loads each file that exists into the process environment.
// Variables already set are not overridden, and missing files are ignored.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}
	retryBaseDelay, err := parsePositiveDuration("RETRY_BASE_DELAY", "2s")
	if err != nil {
		return nil, err
	}

	currentYear := time.Now().UTC().Year()
	pollFirstYear, err := parseInt("POLL_FIRST_YEAR", 2010)
	if err != nil {
		return nil, err
	}
	pollLastYear, err := parseInt("POLL_LAST_YEAR", currentYear)
	if err != nil {
		return nil, err
	}
	pollStartYear, err := parseInt("POLL_START_YEAR", 2025)
	if err != nil {
		return nil, err
	}
	backfillMinYear, err := parseInt("BACKFILL_MIN_YEAR", 2010)
	if err != nil {
		return nil, err
	}
	radarCacheSize, err := parseInt("RADAR_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir: sharedcfg.EnvOrDefault("DATA_DIR", "data"),

		SPCBaseURL:         sharedcfg.EnvOrDefault("SPC_BASE_URL", "https://www.spc.noaa.gov/climo/reports/"),
		StormEventsBaseURL: sharedcfg.EnvOrDefault("STORM_EVENTS_BASE_URL", "https://www.ncei.noaa.gov/pub/data/swdi/stormevents/csvfiles/"),
		HTTPTimeout:        httpTimeout,

		PollFirstYear: pollFirstYear,
		PollLastYear:  pollLastYear,
		PollStartYear: pollStartYear,
		PollInterval:  pollInterval,

		BackfillMinYear: backfillMinYear,

		RetryBaseDelay: retryBaseDelay,
		RadarCacheSize: radarCacheSize,

		KafkaEnabled: sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "storm-daily-summaries"),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.PollFirstYear > cfg.PollLastYear {
		return nil, errors.New("POLL_FIRST_YEAR must not be after POLL_LAST_YEAR")
	}
	if cfg.RadarCacheSize <= 0 {
		return nil, errors.New("RADAR_CACHE_SIZE must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, strconv.Itoa(def)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
