// Package config loads optional user defaults from ~/.sauna.yaml.
// Command-line flags always override file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the defaults file looked up in the user's home directory.
const FileName = ".sauna.yaml"

// Config holds user defaults.
type Config struct {
	Provider string   `yaml:"provider"`
	Model    string   `yaml:"model"`
	Verbose  bool     `yaml:"verbose"`
	NoColor  bool     `yaml:"no_color"`
	Context  []string `yaml:"context"`
}

// Load reads the defaults file at path. A missing file yields a zero Config
// and no error; a malformed file is an error.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the defaults file path in the user's home directory,
// or "" when the home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, FileName)
}

// LoadDefault loads the defaults file from the user's home directory.
func LoadDefault() (Config, error) {
	path := DefaultPath()
	if path == "" {
		return Config{}, nil
	}
	return Load(path)
}
