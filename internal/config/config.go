// Package config loads and saves the vecport CLI configuration.
//
// Configuration lives in a YAML file. Every field has a working default,
// so an absent file is not an error. Command line flags override whatever
// the file provides; the merge happens in the CLI, not here.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PipelineConfig controls how payloads are converted.
type PipelineConfig struct {
	// Precision is the number of decimal places vector components are
	// rounded to. Zero rounds to integers, so the field is a pointer to
	// keep an explicit zero distinguishable from an absent one.
	Precision *int `yaml:"precision,omitempty"`
	MaxItems  int  `yaml:"max_items"`
	SortByID  bool `yaml:"sort_by_id"`
	Normalize bool `yaml:"normalize"`
	Pretty    bool `yaml:"pretty"`
	FailFast  bool `yaml:"fail_fast"`
}

// InputConfig controls how input payloads are parsed.
type InputConfig struct {
	Format string `yaml:"format"`
}

// OutputConfig controls how documents are encoded and stored.
type OutputConfig struct {
	Codec       string `yaml:"codec"`
	Compression string `yaml:"compression"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// BulkConfig configures bulk directory runs.
type BulkConfig struct {
	Workers int `yaml:"workers"`
	// CacheMB sizes the payload cache. With CacheDir it bounds the disk
	// cache; alone it enables an in-memory one.
	CacheMB int64 `yaml:"cache_mb"`
	// CacheDir switches the payload cache to a disk-backed one that
	// survives across runs.
	CacheDir        string `yaml:"cache_dir,omitempty"`
	MemoryLimitMB   int64  `yaml:"memory_limit_mb"`
	IOLimitMBPerSec int    `yaml:"io_limit_mb_per_sec"`
}

// PublishConfig configures versioned publishing.
type PublishConfig struct {
	// Keep is the number of published versions retained after a publish.
	// Zero disables pruning.
	Keep int `yaml:"keep"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
	Bulk     BulkConfig     `yaml:"bulk"`
	Publish  PublishConfig  `yaml:"publish"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./vecport.yaml first, then ~/.config/vecport/config.yaml.
// If neither exists, defaults are returned with an empty path. Environments
// without a home directory get defaults rather than an error.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "vecport.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return defaultConfig(), "", nil
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return defaultConfig(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "vecport", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Pipeline.Precision == nil {
		precision := 6
		cfg.Pipeline.Precision = &precision
	}
	if cfg.Input.Format == "" {
		cfg.Input.Format = "auto"
	}
	if cfg.Output.Codec == "" {
		cfg.Output.Codec = "go-json"
	}
	if cfg.Output.Compression == "" {
		cfg.Output.Compression = "none"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
