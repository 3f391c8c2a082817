// Package appconfig reads and writes the CLI's local configuration under
// ~/.config/storeconf.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the global CLI config stored at ~/.config/storeconf/config.json.
type Config struct {
	ServerURL string `json:"server_url"`
	APIKey    string `json:"api_key,omitempty"`
	QueuePath string `json:"queue_path,omitempty"` // default: <config dir>/queue.db
	Language  string `json:"language,omitempty"`   // default: en
}

const defaultServerURL = "http://localhost:8080"

// Dir returns ~/.config/storeconf, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "storeconf")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the config, applying defaults for missing fields. A missing
// file yields a default config, not an error.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("STORECONF_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("STORECONF_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultServerURL
	}
	if cfg.QueuePath == "" {
		cfg.QueuePath = filepath.Join(dir, "queue.db")
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return cfg, nil
}

// Save writes the config atomically (temp file + rename).
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, "config.json"))
}
