package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseRunConfigYAML parses a RunConfig from YAML bytes on top of Defaults and validates it.
// This is used for APIs where config is provided as payload (not via filesystem).
func ParseRunConfigYAML(data []byte) (*RunConfig, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ParseRunConfigYAMLString parses a RunConfig from a YAML string and validates it.
func ParseRunConfigYAMLString(yamlText string) (*RunConfig, error) {
	return ParseRunConfigYAML([]byte(yamlText))
}

// Overlay applies YAML overrides onto cfg and validates the result.
func Overlay(cfg *RunConfig, data []byte) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *RunConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}
