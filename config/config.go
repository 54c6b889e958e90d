package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	OFF      OFFConfig
	Cache    CacheConfig
	Matching MatchingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// OFFConfig holds Open Food Facts API configuration
type OFFConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// CacheConfig holds product cache configuration
type CacheConfig struct {
	Path                   string        `mapstructure:"path"`
	TTL                    time.Duration `mapstructure:"ttl"`
	FetchTimeout           time.Duration `mapstructure:"fetch_timeout"`
	ServeStaleWhileRefresh bool          `mapstructure:"serve_stale_while_refresh"`
}

// MatchingConfig holds allergen matching configuration
type MatchingConfig struct {
	FuzzyThreshold     float64 `mapstructure:"fuzzy_threshold"`
	MayContainWindow   int     `mapstructure:"may_contain_window"`
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/allergyscan/")

	// Environment variable settings
	v.SetEnvPrefix("ALLERGYSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// OFF defaults
	v.SetDefault("off.base_url", "https://world.openfoodfacts.org/api/v0")

	// Cache defaults
	v.SetDefault("cache.path", "allergyscan.db")
	v.SetDefault("cache.ttl", "168h") // 7 days
	v.SetDefault("cache.fetch_timeout", "10s")
	v.SetDefault("cache.serve_stale_while_refresh", false)

	// Matching defaults
	v.SetDefault("matching.fuzzy_threshold", 0.8)
	v.SetDefault("matching.may_contain_window", 10)
	v.SetDefault("matching.enable_debug_logging", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OFF.BaseURL == "" {
		return fmt.Errorf("OFF base URL is required (set ALLERGYSCAN_OFF_BASE_URL)")
	}

	if config.Cache.Path == "" {
		return fmt.Errorf("cache path is required (set ALLERGYSCAN_CACHE_PATH)")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.Matching.FuzzyThreshold < 0 || config.Matching.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy threshold must be in [0,1], got: %f", config.Matching.FuzzyThreshold)
	}

	if config.Matching.MayContainWindow < 0 {
		return fmt.Errorf("may-contain window must be non-negative, got: %d", config.Matching.MayContainWindow)
	}

	return nil
}
