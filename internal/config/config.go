package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Tool holds all configuration for the asset tool.
type Tool struct {
	// Data
	DataRoot    string `yaml:"data_root"`
	CatalogPath string `yaml:"catalog_path"`

	// Loading
	Parallelism       int      `yaml:"parallelism"`
	TextureExtensions []string `yaml:"texture_extensions"`

	// Logging
	LogLevel string `yaml:"log_level"`
}

// DefaultTool returns Tool config with sensible defaults.
func DefaultTool() Tool {
	return Tool{
		CatalogPath:       "catalog.db",
		Parallelism:       runtime.NumCPU(),
		TextureExtensions: []string{".DDS", ".PNG"},
		LogLevel:          "info",
	}
}

// LoadTool loads tool config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadTool(path string) (Tool, error) {
	cfg := DefaultTool()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
