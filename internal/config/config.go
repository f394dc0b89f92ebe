// Package config assembles station configuration from defaults, an
// optional YAML file, and environment variables, in that order
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hwbench/station/internal/secret"
)

type (
	// Duration is a time.Duration that unmarshals from YAML strings in
	// time.ParseDuration form, like "30s" or "5m"
	Duration time.Duration

	// Config holds configuration settings for the station
	Config struct {
		// API server
		APIHost  string `yaml:"api_host"`
		APIPort  int    `yaml:"api_port"`
		LogLevel string `yaml:"log_level"`

		// Station identity & plan
		StationID string `yaml:"station_id"`
		PlanPath  string `yaml:"plan_path"`

		// Run history & archiving
		HistoryPath      string `yaml:"history_path"`
		HistoryListLimit int    `yaml:"history_list_limit"`
		ArchiveBucketURL string `yaml:"archive_bucket_url"`
		ArchivePrefix    string `yaml:"archive_prefix"`

		// Secrets
		Keystore    secret.KeystoreConfig `yaml:"keystore"`
		SecretsPath string                `yaml:"secrets_path"`

		// Engine
		RequestTimeout   Duration `yaml:"request_timeout"`
		ShutdownTimeout  Duration `yaml:"shutdown_timeout"`
		FinalizerVerdict bool     `yaml:"finalizer_verdict"`
	}
)

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultHistoryPath      = "station-runs.db"
	DefaultHistoryListLimit = 50
	MaxHistoryListLimit     = 10_000

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "station"
	DefaultRedisDB       = 0

	DefaultShutdownTimeout = Duration(10 * time.Second)
	MaxRequestTimeout      = Duration(24 * time.Hour)
)

var (
	ErrInvalidAPIPort        = errors.New("invalid API port")
	ErrMissingHistoryPath    = errors.New("history path required")
	ErrNegativeTimeout       = errors.New("timeout cannot be negative")
	ErrUnreadableConfigFile  = errors.New("unreadable config file")
	ErrUndecodableConfigFile = errors.New("undecodable config file")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// API server, run history, and keystore
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:          DefaultAPIHost,
		APIPort:          DefaultAPIPort,
		LogLevel:         "info",
		HistoryPath:      DefaultHistoryPath,
		HistoryListLimit: DefaultHistoryListLimit,
		Keystore: secret.KeystoreConfig{
			Addr:   DefaultRedisEndpoint,
			Prefix: DefaultRedisPrefix,
			DB:     DefaultRedisDB,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromFile merges settings from a YAML file into the configuration
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadableConfigFile, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %w", ErrUndecodableConfigFile, err)
	}
	return nil
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any value cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadKeystoreFromEnv(&c.Keystore)

	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("STATION_ID", &c.StationID)
	loadEnvString("PLAN_PATH", &c.PlanPath)
	loadEnvString("HISTORY_PATH", &c.HistoryPath)
	loadEnvString("ARCHIVE_BUCKET_URL", &c.ArchiveBucketURL)
	loadEnvString("ARCHIVE_PREFIX", &c.ArchivePrefix)
	loadEnvString("SECRETS_PATH", &c.SecretsPath)

	if v := os.Getenv("FINALIZER_VERDICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FINALIZER_VERDICT: %q", v)
		}
		c.FinalizerVerdict = b
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"HISTORY_LIST_LIMIT", &c.HistoryListLimit, 0, MaxHistoryListLimit,
	); err != nil {
		return err
	}
	if err := loadEnvDuration("REQUEST_TIMEOUT", &c.RequestTimeout); err != nil {
		return err
	}
	return loadEnvDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.HistoryPath == "" {
		return ErrMissingHistoryPath
	}
	if c.RequestTimeout < 0 || c.ShutdownTimeout < 0 {
		return ErrNegativeTimeout
	}
	return nil
}

// loadKeystoreFromEnv loads keystore settings from KEYSTORE_* environment
// variables. STATION_KEY carries the hex-encoded sealing key
func loadKeystoreFromEnv(k *secret.KeystoreConfig) {
	loadEnvString("KEYSTORE_REDIS_ADDR", &k.Addr)
	loadEnvString("KEYSTORE_REDIS_PASSWORD", &k.Password)
	loadEnvString("KEYSTORE_REDIS_PREFIX", &k.Prefix)
	loadEnvString("STATION_KEY", &k.KeyHex)
	if dbStr := os.Getenv("KEYSTORE_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			k.DB = db
		}
	}
}

func loadEnvString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func loadEnvDuration(key string, dst *Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if d < 0 || Duration(d) > MaxRequestTimeout {
		return fmt.Errorf("invalid %s: %s out of range", key, d)
	}
	*dst = Duration(d)
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
