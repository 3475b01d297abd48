// Package config provides YAML-backed application settings and the
// per-instance store.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultAppID is the Steam app whose Workshop this manager targets
// (Project Zomboid).
const DefaultAppID = "108600"

// Config holds global application settings
type Config struct {
	AppID           string        `yaml:"app_id"`
	MaxConcurrent   int           `yaml:"max_concurrent_downloads"`
	SteamCmdDir     string        `yaml:"steamcmd_dir"`
	InstancesDir    string        `yaml:"instances_dir"`
	FetchTimeout    time.Duration `yaml:"-"`
	FetchTimeoutStr string        `yaml:"fetch_timeout,omitempty"`
}

// Load reads configuration from the given directory, returning defaults when
// no config file exists yet.
func Load(configDir string) (*Config, error) {
	cfg := &Config{
		AppID:         DefaultAppID,
		MaxConcurrent: 3,
	}

	configPath := filepath.Join(configDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // Return defaults
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.AppID == "" {
		cfg.AppID = DefaultAppID
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.FetchTimeoutStr != "" {
		d, err := time.ParseDuration(cfg.FetchTimeoutStr)
		if err != nil {
			return nil, fmt.Errorf("parsing fetch_timeout: %w", err)
		}
		cfg.FetchTimeout = d
	}

	return cfg, nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	if c.FetchTimeout > 0 {
		c.FetchTimeoutStr = c.FetchTimeout.String()
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ParseConfigPath validates an explicit config file path override. The path
// must be absolute, traversal-free, exist, and carry a YAML extension.
func ParseConfigPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("config path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		return "", errors.New("config path must be absolute")
	}
	if strings.Contains(path, "..") {
		return "", errors.New("config path contains invalid traversal")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("config file does not exist")
		}
		return "", err
	}
	if info.IsDir() {
		return "", errors.New("config path is a directory, not a file")
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return "", errors.New("config file must have .yaml or .yml extension")
	}

	return path, nil
}
