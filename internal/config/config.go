// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/freightquote/internal/modules/settings"
	"github.com/aristath/freightquote/internal/utils"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for all databases (always absolute)
	ShipSmartAPIKey    string
	ShipSmartAPIURL    string
	LogLevel           string
	Port               int
	DevMode            bool
	ProviderTimeout    time.Duration
	QuoteCacheTTL      time.Duration
	HistoryRetention   time.Duration
	CORSAllowedOrigins []string

	// Environment values, restored when a settings override is cleared
	envAPIKey string
	envAPIURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUOTE_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		ShipSmartAPIKey:    getEnv("SHIPSMART_API_KEY", ""),
		ShipSmartAPIURL:    strings.TrimRight(getEnv("SHIPSMART_API_URL", ""), "/"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnvAsInt("PORT", 8080),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		ProviderTimeout:    time.Duration(getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
		QuoteCacheTTL:      time.Duration(getEnvAsInt("QUOTE_CACHE_TTL_MINUTES", 15)) * time.Minute,
		HistoryRetention:   time.Duration(getEnvAsInt("HISTORY_RETENTION_DAYS", 30)) * 24 * time.Hour,
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
	cfg.envAPIKey = cfg.ShipSmartAPIKey
	cfg.envAPIURL = cfg.ShipSmartAPIURL

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from settings database.
// Settings DB values take precedence over environment variables when non-empty.
func (c *Config) UpdateFromSettings(settingsRepo *settings.Repository) error {
	apiKey, err := settingsRepo.Get(settings.KeyShipSmartAPIKey)
	if err != nil {
		return fmt.Errorf("failed to get %s from settings: %w", settings.KeyShipSmartAPIKey, err)
	}
	c.ShipSmartAPIKey = c.envAPIKey
	if apiKey != nil && *apiKey != "" {
		c.ShipSmartAPIKey = *apiKey
	}

	apiURL, err := settingsRepo.Get(settings.KeyShipSmartAPIURL)
	if err != nil {
		return fmt.Errorf("failed to get %s from settings: %w", settings.KeyShipSmartAPIURL, err)
	}
	c.ShipSmartAPIURL = c.envAPIURL
	if apiURL != nil && *apiURL != "" {
		c.ShipSmartAPIURL = strings.TrimRight(*apiURL, "/")
	}

	return nil
}

// HasProviderCredentials reports whether both the API key and URL are set.
func (c *Config) HasProviderCredentials() bool {
	return c.ShipSmartAPIKey != "" && c.ShipSmartAPIURL != ""
}

// Validate checks if required configuration is present.
// Provider credentials are optional at startup; requests fail until they are set.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	if c.QuoteCacheTTL <= 0 {
		return fmt.Errorf("quote cache TTL must be positive")
	}
	if c.HistoryRetention <= 0 {
		return fmt.Errorf("history retention must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if result := utils.SplitList(os.Getenv(key)); len(result) > 0 {
		return result
	}
	return defaultValue
}
