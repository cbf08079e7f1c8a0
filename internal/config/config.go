// Package config loads the application configuration from an embedded YAML
// file, a filesystem override, and environment variable expansion.
package config

import (
	"embed"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML embed.FS

// Config is the top-level application configuration.
type Config struct {
	Portal  PortalConfig  `yaml:"portal"`
	Cache   CacheConfig   `yaml:"cache"`
	Files   FilesConfig   `yaml:"files"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
}

// PortalConfig tunes procurement portal retrieval.
type PortalConfig struct {
	BaseURL        string  `yaml:"base_url,omitempty"`
	UserAgent      string  `yaml:"user_agent,omitempty"`
	AcceptLanguage string  `yaml:"accept_language,omitempty"`
	SearchRetries  int     `yaml:"search_retries,omitempty"` // Default: 5
	DetailRetries  int     `yaml:"detail_retries,omitempty"` // Default: 3
	CourtesyMillis int     `yaml:"courtesy_ms,omitempty"`    // Minimum gap between requests, default: 500
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`
	UseColly       bool    `yaml:"use_colly,omitempty"` // Switch to the colly-backed client
}

// CacheConfig governs the search result cache and stored detail freshness.
type CacheConfig struct {
	TTLMinutes       int `yaml:"ttl_minutes,omitempty"`       // Default: 30
	FreshnessMinutes int `yaml:"freshness_minutes,omitempty"` // Default: 30
}

// FilesConfig holds output locations.
type FilesConfig struct {
	ResultsDir string `yaml:"results_dir,omitempty"` // Excel and HTML exports
	DebugDir   string `yaml:"debug_dir,omitempty"`   // Unparseable page dumps
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port string `yaml:"port,omitempty"` // Default: 8080
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"` // Usually ${DATABASE_URL}
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

// Freshness returns the stored-detail freshness window as a duration.
func (c CacheConfig) Freshness() time.Duration {
	if c.FreshnessMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.FreshnessMinutes) * time.Minute
}

// CourtesyDelay returns the minimum inter-request delay.
func (p PortalConfig) CourtesyDelay() time.Duration {
	if p.CourtesyMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(p.CourtesyMillis) * time.Millisecond
}

// Load reads the embedded defaults and returns a Config. When path names an
// existing file it is read instead. Environment variables within the YAML
// content (e.g. ${DATABASE_URL}) are expanded before parsing.
func Load(path string) (*Config, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	}
	if path == "" || err != nil {
		data, err = defaultsYAML.ReadFile("defaults.yaml")
		if err != nil {
			return nil, err
		}
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Files.ResultsDir == "" {
		c.Files.ResultsDir = "results"
	}
	if c.Files.DebugDir == "" {
		c.Files.DebugDir = "debug"
	}
}
