package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration loaded from environment variables and an
// optional .env file.
type Config struct {
	BaseURL        string        `mapstructure:"hpkv_base_url"`
	APIKey         string        `mapstructure:"hpkv_api_key"`
	TimeoutSeconds int64         `mapstructure:"hpkv_timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
	LogLevel       string        `mapstructure:"log_level"`

	MockListenAddr string `mapstructure:"mock_listen_addr"`
	MockStoreType  string `mapstructure:"mock_store_type"`
	MockBoltPath   string `mapstructure:"mock_bbolt_path"`
	MockAPIKey     string `mapstructure:"mock_api_key"`
}

// Load reads configuration from environment variables, honoring a local .env
// file. Endpoint and API key stay optional here; commands that reach the
// remote service validate them at client construction.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	v.SetDefault("hpkv_base_url", "")
	v.SetDefault("hpkv_api_key", "")
	v.SetDefault("hpkv_timeout_seconds", 15)
	v.SetDefault("log_level", "info")
	v.SetDefault("mock_listen_addr", "127.0.0.1:8080")
	v.SetDefault("mock_store_type", "memory")
	v.SetDefault("mock_bbolt_path", "./data/hpkv-mock.db")
	v.SetDefault("mock_api_key", "dev-key")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid hpkv_timeout_seconds (must be positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	return &cfg, nil
}
