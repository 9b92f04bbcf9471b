// Package config loads the fichas configuration file. Every key is optional;
// omitted keys keep the defaults of Default().
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"fichas/internal/store"
	"fichas/internal/validation"
)

// Config is the runtime configuration shared by the CLI and the MCP server.
type Config struct {
	// Schema, Vocabulary and Rules are file paths; empty selects the embedded
	// plantilla, aid-type list and thresholds.
	Schema     string `yaml:"schema" json:"schema"`
	Vocabulary string `yaml:"vocabulary" json:"vocabulary"`
	Rules      string `yaml:"rules" json:"rules"`

	// Strategies overrides the merge strategy per field.
	Strategies map[string]string `yaml:"strategies" json:"strategies" validate:"dive,oneof=longest union_strings union_by_key line_set channel_merge"`

	DB        string  `yaml:"db" json:"db" validate:"required"`
	Parallel  int     `yaml:"parallel" json:"parallel" validate:"gte=1,lte=64"`
	Gate      bool    `yaml:"gate" json:"gate"`
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"gte=0,lte=1"`

	Log Log `yaml:"log" json:"log"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DB:        store.DefaultDBPath,
		Parallel:  4,
		Threshold: 0.7,
		Log:       Log{Level: "info", Format: "text"},
	}
}

// LoadFromPath reads a config file (YAML or JSON). Format is detected by
// extension (.yaml/.yml → YAML, .json → JSON) or by content.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	c, err := Load(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config: %q: %w", path, err)
	}
	return c, nil
}

// Load parses config bytes over the defaults and validates the result. ext
// is a format hint; empty means detect from content.
func Load(data []byte, ext string) (*Config, error) {
	c := Default()
	if err := decode(data, ext, c); err != nil {
		return nil, err
	}
	if err := validation.Struct(c); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return c, nil
}

func decode(data []byte, ext string, c *Config) error {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return decodeYAML(data, c)
	case ".json":
		return decodeJSON(data, c)
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return decodeJSON(data, c)
	}
	return decodeYAML(data, c)
}

func decodeYAML(data []byte, c *Config) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, c *Config) error {
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse json: %w", err)
	}
	return nil
}
