package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Store        StoreConfig
	Remote       RemoteConfig
	JWT          JWTConfig
	Sync         SyncConfig         `mapstructure:"sync"`
	AssetCache   AssetCacheConfig   `mapstructure:"asset_cache"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type StoreConfig struct {
	Path string `mapstructure:"path"` // sqlite file, ":memory:" in tests
}

type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout_seconds"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type SyncConfig struct {
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

type AssetCacheConfig struct {
	Version        string   `mapstructure:"version"`
	Manifest       []string `mapstructure:"manifest"`
	BypassPrefixes []string `mapstructure:"bypass_prefixes"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RootDocument   string   `mapstructure:"root_document"`
}

type ConnectivityConfig struct {
	ProbeIntervalSeconds int    `mapstructure:"probe_interval_seconds"`
	ProbePath            string `mapstructure:"probe_path"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("NABHA")
	viper.AutomaticEnv()

	// Store
	viper.BindEnv("store.path", "STORE_PATH")

	// Remote collaborator
	viper.BindEnv("remote.base_url", "REMOTE_BASE_URL")
	viper.BindEnv("remote.api_key", "REMOTE_API_KEY")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Remote.Timeout = cfg.Remote.Timeout * time.Second

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 60
	}
	if cfg.Connectivity.ProbeIntervalSeconds <= 0 {
		cfg.Connectivity.ProbeIntervalSeconds = 30
	}
	if cfg.Connectivity.ProbePath == "" {
		cfg.Connectivity.ProbePath = "/rest/v1/health"
	}
	if cfg.AssetCache.RootDocument == "" {
		cfg.AssetCache.RootDocument = "/index.html"
	}

	return &cfg, nil
}
