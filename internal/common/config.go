// Package common provides shared utilities for YieldMapper
package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for YieldMapper
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Cache       CacheConfig   `toml:"cache"`
	FX          FXConfig      `toml:"fx"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the data directory for the symbol caches and the watchlist document.
type StorageConfig struct {
	DataPath string `toml:"data_path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	AKTools AKToolsConfig `toml:"aktools"`
}

// AKToolsConfig holds the market-data HTTP service configuration
type AKToolsConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AKToolsConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheConfig holds symbol universe cache settings
type CacheConfig struct {
	SymbolTTL string `toml:"symbol_ttl"`
}

// GetSymbolTTL parses and returns the symbol cache TTL
func (c *CacheConfig) GetSymbolTTL() time.Duration {
	d, err := time.ParseDuration(c.SymbolTTL)
	if err != nil || d <= 0 {
		return FreshnessSymbolUniverse
	}
	return d
}

// FXConfig holds exchange-rate lookup settings
type FXConfig struct {
	FallbackRate float64 `toml:"fallback_rate"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Storage: StorageConfig{
			DataPath: "data",
		},
		Clients: ClientsConfig{
			AKTools: AKToolsConfig{
				BaseURL:   "http://127.0.0.1:8080",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Cache: CacheConfig{
			SymbolTTL: "24h",
		},
		FX: FXConfig{
			FallbackRate: 0.924,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/yieldmapper.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("YIELDMAPPER_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("YIELDMAPPER_HOST"); host != "" {
		config.Server.Host = host
	}

	// PORT is honoured for parity with the original launcher
	for _, key := range []string{"PORT", "YIELDMAPPER_PORT"} {
		if port := os.Getenv(key); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if level := os.Getenv("YIELDMAPPER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("YIELDMAPPER_DATA_PATH"); path != "" {
		config.Storage.DataPath = path
	}

	if url := os.Getenv("YIELDMAPPER_AKTOOLS_URL"); url != "" {
		config.Clients.AKTools.BaseURL = url
	}
}
