package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported request body encodings for create/update calls.
const (
	EncodingForm = "form"
	EncodingJSON = "json"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName               string        `mapstructure:"app_name"`
	Env                   string        `mapstructure:"app_env"`
	LogLevel              string        `mapstructure:"log_level"`
	BackendURL            string        `mapstructure:"backend_url"`
	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	RequestEncoding       string        `mapstructure:"request_encoding"`
	SeedSource            string        `mapstructure:"seed_source"`
	TemplateFile          string        `mapstructure:"template_file"`
	PublishersFile        string        `mapstructure:"publishers_file"`
	Timezone              string        `mapstructure:"timezone"`

	// Location is resolved from Timezone and used to parse zone-less dates.
	Location *time.Location `mapstructure:"-"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "blog-articles")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("backend_url", "http://localhost:3000")
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("request_encoding", EncodingForm)
	v.SetDefault("seed_source", "embedded")
	v.SetDefault("template_file", "")
	v.SetDefault("publishers_file", "")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/articles.db")
	v.SetDefault("storage_ttl_seconds", int64((24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend_url is required")
	}

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	cfg.RequestEncoding = strings.ToLower(strings.TrimSpace(cfg.RequestEncoding))
	switch cfg.RequestEncoding {
	case EncodingForm, EncodingJSON:
	default:
		return nil, fmt.Errorf("invalid request_encoding %q (expected form or json)", cfg.RequestEncoding)
	}

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.StorageTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}
