// Package config loads the ctxserve service configuration from YAML,
// with env-friendly defaults for every field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all ctxserve configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Extract   ExtractConfig   `yaml:"extract"`
	Retention RetentionConfig `yaml:"retention"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig selects the persistence backend. Backend is "sqlite",
// "json" or "memory".
type StorageConfig struct {
	Backend  string `yaml:"backend"`
	DBPath   string `yaml:"db_path"`
	JSONPath string `yaml:"json_path"`
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	MaxBytes int `yaml:"max_bytes"`
}

// ExtractConfig carries extraction defaults applied when a request does
// not set its own values.
type ExtractConfig struct {
	DefaultMaxTokens int     `yaml:"default_max_tokens"`
	DefaultDecayRate float64 `yaml:"default_decay_rate"`
}

// RetentionConfig controls event-log cleanup.
type RetentionConfig struct {
	EventDays int `yaml:"event_days"`
}

func (c *Config) defaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8090"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "sqlite"
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "db/ctxserve.db"
	}
	if c.Storage.JSONPath == "" {
		c.Storage.JSONPath = "data/documents.json"
	}
	if c.Ingest.MaxBytes <= 0 {
		c.Ingest.MaxBytes = 20 * 1024 * 1024
	}
	if c.Extract.DefaultMaxTokens <= 0 {
		c.Extract.DefaultMaxTokens = 4000
	}
	if c.Extract.DefaultDecayRate <= 0 {
		c.Extract.DefaultDecayRate = 0.01
	}
	if c.Retention.EventDays <= 0 {
		c.Retention.EventDays = 90
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.defaults()
	return cfg
}

// LoadFile reads a YAML config file and fills in defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}
