// Package keystore persists the reputation-service API key between runs.
// The pipeline itself never reads it; main loads the key here and passes it
// down explicitly.
package keystore

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultPath is the key-value file next to the binary, kept compatible with
// earlier releases.
const DefaultPath = "config.json"

type Config struct {
	APIKey string `json:"api_key"`
}

// Load reads the config file at path. A missing file is not an error; it
// returns an empty Config so first runs work without setup.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read key file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse key file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path with owner-only permissions.
func Save(path string, cfg Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}
