// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${ENV_VAR} expansion
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	token := cfg.Firefly.Token
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Firefly FireflyConfig `yaml:"firefly"`
	Allegro AllegroConfig `yaml:"allegro"`
	Filters FiltersConfig `yaml:"filters"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// FireflyConfig holds the ledger API connection settings
type FireflyConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// AllegroConfig holds the marketplace API connection settings
type AllegroConfig struct {
	BaseURL string `yaml:"base_url"`
}

// FiltersConfig holds the per-flow transaction description filters
type FiltersConfig struct {
	Blik    DescriptionFilterConfig `yaml:"blik"`
	Allegro DescriptionFilterConfig `yaml:"allegro"`
}

// DescriptionFilterConfig selects ledger transactions by description text
type DescriptionFilterConfig struct {
	Text  string `yaml:"text"`
	Exact bool   `yaml:"exact"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${FIREFLY_TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvInt("SERVER_PORT", 8000),
			CORSOrigins: splitList(os.Getenv("CORS_ORIGINS")),
		},
		Firefly: FireflyConfig{
			BaseURL: os.Getenv("FIREFLY_BASE_URL"),
			Token:   os.Getenv("FIREFLY_TOKEN"),
		},
		Allegro: AllegroConfig{
			BaseURL: getEnv("ALLEGRO_BASE_URL", "https://edge.allegro.pl"),
		},
		Filters: FiltersConfig{
			Blik: DescriptionFilterConfig{
				Text:  getEnv("BLIK_FILTER_TEXT", "BLIK zakup"),
				Exact: false,
			},
			Allegro: DescriptionFilterConfig{
				Text: getEnv("ALLEGRO_FILTER_TEXT", "Allegro"),
			},
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("ENRICHER_DB_PATH", "enricher.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "enricher.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

// splitList parses a comma-separated environment value
func splitList(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
