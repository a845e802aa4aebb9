// Package config loads the application configuration.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded from a JSON file with optional environment overrides.
type Config struct {
	Model                string `json:"model"`
	ContextEnabled       bool   `json:"context_enabled"`
	ContextLevel         int    `json:"context_level"`
	OriginalsCapacity    int    `json:"originals_capacity"`
	PruneIntervalSeconds int    `json:"prune_interval_seconds"`
	Verbose              bool   `json:"verbose,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model:                "gpt-4o",
		ContextEnabled:       true,
		ContextLevel:         5,
		OriginalsCapacity:    100,
		PruneIntervalSeconds: 300,
	}
}

// Load reads the configuration at fpath, falling back to defaults when
// fpath is empty. A .env file and UNICHAT_* environment variables override
// file values.
func Load(fpath string) (conf Config, err error) {
	conf = Default()

	if fpath != "" {
		var bytes []byte
		if bytes, err = os.ReadFile(fpath); err != nil {
			return Config{}, err
		}
		if err = json.Unmarshal(bytes, &conf); err != nil {
			return Config{}, err
		}
	}

	_ = godotenv.Load()

	if v := os.Getenv("UNICHAT_MODEL"); v != "" {
		conf.Model = v
	}
	if v := os.Getenv("UNICHAT_CONTEXT_ENABLED"); v != "" {
		conf.ContextEnabled = v == "true" || v == "1"
	}
	if v := os.Getenv("UNICHAT_CONTEXT_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			conf.ContextLevel = n
		}
	}

	return conf, nil
}

// PruneInterval returns the side table prune cadence.
func (c Config) PruneInterval() time.Duration {
	if c.PruneIntervalSeconds <= 0 {
		return 5 * time.Minute
	}

	return time.Duration(c.PruneIntervalSeconds) * time.Second
}
