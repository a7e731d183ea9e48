package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AndreyAkinshin/measuretests/internal/schema"
)

// Load reads and parses a measuretests.json file.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &fc, nil
}

// LoadAndValidate reads a project file, checks it against the embedded
// schema and returns warnings for unknown fields.
func LoadAndValidate(path string) (*FileConfig, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	fc, warnings, err := LoadWithWarnings(path, data)
	if err != nil {
		return nil, nil, err
	}

	if err := schema.ValidateConfig(data); err != nil {
		return nil, warnings, fmt.Errorf("%s: %w", path, err)
	}

	return fc, warnings, nil
}

// Resolve builds a configuration from defaults, an optional project file
// and the environment. Command-line flags are applied by the caller on top.
func Resolve(path string, getenv func(string) string) (*RunConfiguration, []string, error) {
	cfg := Default()
	var warnings []string

	if path != "" {
		fc, fileWarnings, err := LoadAndValidate(path)
		warnings = append(warnings, fileWarnings...)
		if err != nil {
			return nil, warnings, err
		}
		if err := ApplyFile(cfg, fc); err != nil {
			return nil, warnings, err
		}
	}

	warnings = append(warnings, ApplyEnv(cfg, getenv)...)
	return cfg, warnings, nil
}
