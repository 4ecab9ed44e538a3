package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "PAGEGRID"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// Addr is the listen address of `pagegrid serve`.
	Addr string `envconfig:"ADDR" default:":8080"`
	// DBPath selects the SQLite page store. Empty keeps pages in memory.
	DBPath string `envconfig:"DB_PATH"`
	// DescriptorsDir replaces the embedded descriptor index with a sorted
	// scan of a directory. The Go renderers are always the built-in ones.
	DescriptorsDir string `envconfig:"DESCRIPTORS_DIR"`
}

// LoadConfig reads PAGEGRID_* environment variables on top of the defaults.
// The result is not validated; pass it through NewConfig.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// NewConfig normalises and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}
	if cfg.Addr == "" {
		return nil, errors.New("Addr is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
