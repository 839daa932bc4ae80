package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds tunable behavior that is separate from the credential
// lifecycle. It lives in settings.yaml next to config.json and is optional;
// a missing file means defaults.
type Settings struct {
	// Generation settings
	Generation GenerationSettings `yaml:"generation"`

	// Local story library
	Library LibrarySettings `yaml:"library"`

	// Logging
	Logging LoggingSettings `yaml:"logging"`
}

// GenerationSettings configures the story generation client.
type GenerationSettings struct {
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// LibrarySettings configures where finished storybooks are kept.
type LibrarySettings struct {
	Dir string `yaml:"dir"` // empty means <config dir>/library
}

// LoggingSettings configures diagnostic logging.
type LoggingSettings struct {
	Debug bool `yaml:"debug"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() *Settings {
	return &Settings{
		Generation: GenerationSettings{
			Model:   "gemini-2.5-flash-image",
			Timeout: "120s",
		},
		Library: LibrarySettings{
			Dir: "",
		},
		Logging: LoggingSettings{
			Debug: false,
		},
	}
}

// SettingsFile returns the full path to the settings file.
func SettingsFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// LoadSettings loads settings from settings.yaml.
func LoadSettings() (*Settings, error) {
	s := DefaultSettings()

	path, err := SettingsFile()
	if err != nil {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if settings file doesn't exist
			return s, nil
		}
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return s, nil
}

// SaveSettings saves settings to settings.yaml.
func SaveSettings(s *Settings) error {
	path, err := SettingsFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}

// GetGenerationTimeout returns the generation timeout as a duration.
func (s *Settings) GetGenerationTimeout() time.Duration {
	d, err := time.ParseDuration(s.Generation.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// LibraryDir resolves the directory for saved storybooks.
func (s *Settings) LibraryDir() (string, error) {
	if s.Library.Dir != "" {
		return s.Library.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "library"), nil
}
