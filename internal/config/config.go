package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string `mapstructure:"app_name"`
	Env            string `mapstructure:"app_env"`
	LogLevel       string `mapstructure:"log_level"`
	ProvidersFile  string `mapstructure:"providers_file"`
	PublishersFile string `mapstructure:"publishers_file"`
	CollectCron    string `mapstructure:"collect_cron"`
	APIAddr        string `mapstructure:"api_addr"`

	TrendsBaseURL      string        `mapstructure:"trends_base_url"`
	TrendsMaxRetries   int           `mapstructure:"trends_max_retries"`
	TrendsBaseDelayMs  int64         `mapstructure:"trends_base_delay_ms"`
	TrendsBaseDelay    time.Duration `mapstructure:"-"`
	HackerNewsBaseURL  string        `mapstructure:"hackernews_base_url"`
	HackerNewsTimeoutS int64         `mapstructure:"hackernews_timeout_seconds"`
	HackerNewsTimeout  time.Duration `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-trend-scout")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("providers_file", "./configs/providers.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("collect_cron", "*/30 * * * *")
	v.SetDefault("api_addr", ":9000")
	v.SetDefault("trends_base_url", "https://trends.google.com")
	v.SetDefault("trends_max_retries", 3)
	v.SetDefault("trends_base_delay_ms", 2000)
	v.SetDefault("hackernews_base_url", "https://hacker-news.firebaseio.com")
	v.SetDefault("hackernews_timeout_seconds", 30)
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/seen.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("storage_ttl_seconds", int64((5*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if strings.TrimSpace(cfg.CollectCron) == "" {
		return fmt.Errorf("invalid collect_cron (must not be empty)")
	}
	if cfg.TrendsMaxRetries <= 0 {
		return fmt.Errorf("invalid trends_max_retries (must be positive)")
	}
	if cfg.TrendsBaseDelayMs <= 0 {
		return fmt.Errorf("invalid trends_base_delay_ms (must be positive milliseconds)")
	}
	cfg.TrendsBaseDelay = time.Duration(cfg.TrendsBaseDelayMs) * time.Millisecond

	if cfg.HackerNewsTimeoutS <= 0 {
		return fmt.Errorf("invalid hackernews_timeout_seconds (must be positive seconds)")
	}
	cfg.HackerNewsTimeout = time.Duration(cfg.HackerNewsTimeoutS) * time.Second

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second
	return nil
}
