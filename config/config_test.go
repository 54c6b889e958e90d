package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("ALLERGYSCAN_SERVER_PORT")
		os.Unsetenv("ALLERGYSCAN_SERVER_ENVIRONMENT")
		os.Unsetenv("ALLERGYSCAN_OFF_BASE_URL")
		os.Unsetenv("ALLERGYSCAN_CACHE_PATH")
		os.Unsetenv("ALLERGYSCAN_CACHE_TTL")
		os.Unsetenv("ALLERGYSCAN_CACHE_FETCH_TIMEOUT")
		os.Unsetenv("ALLERGYSCAN_MATCHING_FUZZY_THRESHOLD")
		os.Unsetenv("ALLERGYSCAN_MATCHING_MAY_CONTAIN_WINDOW")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.OFF.BaseURL != "https://world.openfoodfacts.org/api/v0" {
			t.Errorf("OFF.BaseURL = %s, want OFF v0 API", cfg.OFF.BaseURL)
		}
		if cfg.Cache.Path != "allergyscan.db" {
			t.Errorf("Cache.Path = %s, want allergyscan.db", cfg.Cache.Path)
		}
		if cfg.Cache.TTL != 168*time.Hour {
			t.Errorf("Cache.TTL = %v, want 168h", cfg.Cache.TTL)
		}
		if cfg.Cache.FetchTimeout != 10*time.Second {
			t.Errorf("Cache.FetchTimeout = %v, want 10s", cfg.Cache.FetchTimeout)
		}
		if cfg.Matching.FuzzyThreshold != 0.8 {
			t.Errorf("Matching.FuzzyThreshold = %v, want 0.8", cfg.Matching.FuzzyThreshold)
		}
		if cfg.Matching.MayContainWindow != 10 {
			t.Errorf("Matching.MayContainWindow = %d, want 10", cfg.Matching.MayContainWindow)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("ALLERGYSCAN_SERVER_PORT", "9090")
		os.Setenv("ALLERGYSCAN_SERVER_ENVIRONMENT", "production")
		os.Setenv("ALLERGYSCAN_CACHE_TTL", "24h")
		os.Setenv("ALLERGYSCAN_MATCHING_MAY_CONTAIN_WINDOW", "5")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Matching.MayContainWindow != 5 {
			t.Errorf("Matching.MayContainWindow = %d, want 5", cfg.Matching.MayContainWindow)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080", Environment: "test"},
			OFF:    OFFConfig{BaseURL: "https://world.openfoodfacts.org/api/v0"},
			Cache:  CacheConfig{Path: "test.db", TTL: time.Hour, FetchTimeout: time.Second},
			Matching: MatchingConfig{
				FuzzyThreshold:   0.8,
				MayContainWindow: 10,
			},
		}
	}

	t.Run("accepts valid config", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("rejects empty OFF base URL", func(t *testing.T) {
		cfg := valid()
		cfg.OFF.BaseURL = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error")
		}
	})

	t.Run("rejects empty cache path", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.Path = ""
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error")
		}
	})

	t.Run("rejects non-positive TTL", func(t *testing.T) {
		cfg := valid()
		cfg.Cache.TTL = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error")
		}
	})

	t.Run("rejects fuzzy threshold out of range", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.FuzzyThreshold = 1.5
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error")
		}
	})

	t.Run("rejects negative window", func(t *testing.T) {
		cfg := valid()
		cfg.Matching.MayContainWindow = -1
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error")
		}
	})
}
