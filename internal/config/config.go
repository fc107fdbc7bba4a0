// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"studycost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Pricing contains pricing configuration
	Pricing PricingConfig `json:"pricing"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Database contains snapshot store configuration
	Database DatabaseConfig `json:"database"`

	// Cache contains catalog cache configuration
	Cache CacheConfig `json:"cache"`

	// Consult contains the outbound consultation settings
	Consult ConsultConfig `json:"consult"`

	// Export contains estimate export settings
	Export ExportConfig `json:"export"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// PricingConfig contains pricing-related settings
type PricingConfig struct {
	// BaseCurrency is the catalog base currency
	BaseCurrency string `json:"base_currency"`

	// EndpointURL is the remote pricing catalog endpoint
	EndpointURL string `json:"endpoint_url"`

	// PageSize is the page size requested from the catalog endpoint
	PageSize int `json:"page_size"`

	// SeedDir holds HCL catalog seed files used when no endpoint is configured
	SeedDir string `json:"seed_dir"`

	// RefreshOnStart refreshes catalogs on server startup
	RefreshOnStart bool `json:"refresh_on_start"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Address to listen on
	Address string `json:"address"`

	// ReadTimeoutSeconds for requests
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`

	// WriteTimeoutSeconds for responses
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`

	// EnableCORS enables CORS headers
	EnableCORS bool `json:"enable_cors"`

	// AllowedOrigins for CORS
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig contains snapshot store settings
type DatabaseConfig struct {
	// URL is the Postgres connection string; empty disables the store
	URL string `json:"url,omitempty"`

	// MaxOpenConns bounds the connection pool
	MaxOpenConns int `json:"max_open_conns"`
}

// CacheConfig contains catalog cache settings
type CacheConfig struct {
	// Enabled enables catalog caching
	Enabled bool `json:"enabled"`

	// RedisAddr is the Redis address; empty falls back to in-memory
	RedisAddr string `json:"redis_addr,omitempty"`

	// TTLSeconds is how long catalog entries stay fresh
	TTLSeconds int `json:"ttl_seconds"`
}

// ExportConfig contains estimate export settings
type ExportConfig struct {
	// ArchiveDir stores exported estimates as JSON files; empty keeps
	// the archive in memory only
	ArchiveDir string `json:"archive_dir,omitempty"`
}

// ConsultConfig contains the consultation deep-link settings
type ConsultConfig struct {
	// Phone is the destination identifier (international format, digits only)
	Phone string `json:"phone"`

	// Message is the prefilled message template
	Message string `json:"message"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	seedDir := filepath.Join(homeDir, ".studycost", "catalogs")

	return &Config{
		Version: "1.0",
		Pricing: PricingConfig{
			BaseCurrency:   "IDR",
			PageSize:       100,
			SeedDir:        seedDir,
			RefreshOnStart: false,
		},
		Server: ServerConfig{
			Address:             ":8080",
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 60,
			EnableCORS:          true,
			AllowedOrigins:      []string{"*"},
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
		},
		Consult: ConsultConfig{
			Message: "Halo, saya ingin konsultasi biaya studi.",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, then applies environment overrides.
// A missing file is not an error; defaults are used.
func Load(path string) (*Config, error) {
	// .env is optional and only fills in missing environment variables
	_ = godotenv.Load()

	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnv()
			return config, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	config.applyEnv()
	return config, nil
}

// applyEnv applies environment variable overrides
func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("PRICING_ENDPOINT"); v != "" {
		c.Pricing.EndpointURL = v
	}
	if v := os.Getenv("CONSULT_PHONE"); v != "" {
		c.Consult.Phone = v
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
