// Package config manages storyforge's durable local state: the credential
// file (config.json) and the optional settings file (settings.yaml), both
// living under ConfigDir.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// EnvConfigDir overrides the config directory when set.
const EnvConfigDir = "STORYFORGE_CONFIG_DIR"

// Config holds user preferences and the stored API credential.
type Config struct {
	APIKey string `json:"api_key"`
	Theme  string `json:"theme"` // "light", "dark" or "" (detect)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{}
}

// ConfigDir returns the directory where config is stored.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}

	// Prefer project-local .storyforge directory if present or creatable
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".storyforge")
		if stat, err := os.Stat(localDir); err == nil && stat.IsDir() {
			return localDir, nil
		}
	}

	// Fallback to home-level config
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".storyforge"), nil
}

// ConfigFile returns the full path to the config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk. A missing file is not an error;
// callers get defaults. Any other failure also yields defaults so the
// session can continue without a stored credential.
func Load() (Config, error) {
	path, err := ConfigFile()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return DefaultConfig(), err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	return cfg, nil
}

// Save writes the configuration to disk, overwriting any prior value.
func Save(cfg Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigFile()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Clear removes the persisted credential while keeping other preferences.
func Clear() error {
	cfg, _ := Load()
	cfg.APIKey = ""
	return Save(cfg)
}
