package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	DEXScreener   DEXScreenerConfig   `yaml:"dexScreener"`
	Trending      TrendingConfig      `yaml:"trending"`
	MetadataCache MetadataCacheConfig `yaml:"metadataCache"`
	Logging       LoggingConfig       `yaml:"logging"`
	Swagger       SwaggerConfig       `yaml:"swagger"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// DatabaseConfig holds the configuration for the choice store database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// DEXScreenerConfig holds the configuration for the DEX Screener client.
type DEXScreenerConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RequestsPerMinute    int    `yaml:"requestsPerMinute"`
	MaxTokensPerRequest  int    `yaml:"maxTokensPerRequest"`
}

// TrendingConfig holds the configuration for the trending aggregation.
type TrendingConfig struct {
	SearchSymbols        []string `yaml:"searchSymbols"`
	PairsPerSymbol       int      `yaml:"pairsPerSymbol"`
	StablecoinSymbols    []string `yaml:"stablecoinSymbols"`
	MaxBoostedTokens     int      `yaml:"maxBoostedTokens"`
	MinVolume24h         float64  `yaml:"minVolume24h"`
	OutputSize           int      `yaml:"outputSize"`
	MaxConcurrentQueries int      `yaml:"maxConcurrentQueries"`
	GlobalTimeoutMillis  int64    `yaml:"globalTimeoutMillis"`
}

// MetadataCacheConfig holds the configuration for the trending metadata cache.
// A TTL of zero keeps entries for the process lifetime.
type MetadataCacheConfig struct {
	TTLMinutes             int `yaml:"ttlMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// applyDefaults fills in default values for fields not set in the file.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8001"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "charts_demo.db"
		logrus.Infof("Database.DSN not set, defaulting to %s", cfg.Database.DSN)
	}
	if cfg.DEXScreener.BaseURL == "" {
		cfg.DEXScreener.BaseURL = "https://api.dexscreener.com"
		logrus.Infof("DEXScreener.BaseURL not set, defaulting to %s", cfg.DEXScreener.BaseURL)
	}
	if cfg.DEXScreener.RequestTimeoutMillis == 0 {
		cfg.DEXScreener.RequestTimeoutMillis = 10000 // Default to 10 seconds
		logrus.Infof("DEXScreener.RequestTimeoutMillis not set, defaulting to %d ms", cfg.DEXScreener.RequestTimeoutMillis)
	}
	if cfg.DEXScreener.RequestsPerMinute == 0 {
		cfg.DEXScreener.RequestsPerMinute = 300
	}
	if cfg.DEXScreener.MaxTokensPerRequest == 0 {
		cfg.DEXScreener.MaxTokensPerRequest = 30 // Default for DEXScreener
		logrus.Infof("DEXScreener.MaxTokensPerRequest not set, defaulting to %d", cfg.DEXScreener.MaxTokensPerRequest)
	}
	if len(cfg.Trending.SearchSymbols) == 0 {
		cfg.Trending.SearchSymbols = []string{"ETH", "BTC", "SOL", "DOGE", "MATIC", "ADA", "LINK", "AVAX", "UNI", "LTC"}
	}
	if cfg.Trending.PairsPerSymbol == 0 {
		cfg.Trending.PairsPerSymbol = 3
	}
	if len(cfg.Trending.StablecoinSymbols) == 0 {
		cfg.Trending.StablecoinSymbols = []string{"USDC", "USDT", "DAI"}
	}
	if cfg.Trending.MaxBoostedTokens == 0 {
		cfg.Trending.MaxBoostedTokens = 30
	}
	if cfg.Trending.MinVolume24h == 0 {
		cfg.Trending.MinVolume24h = 10000
	}
	if cfg.Trending.OutputSize == 0 {
		cfg.Trending.OutputSize = 30
	}
	if cfg.Trending.MaxConcurrentQueries == 0 {
		cfg.Trending.MaxConcurrentQueries = 5
	}
	if cfg.Trending.GlobalTimeoutMillis == 0 {
		cfg.Trending.GlobalTimeoutMillis = 30000
		logrus.Infof("Trending.GlobalTimeoutMillis not set, defaulting to %d ms", cfg.Trending.GlobalTimeoutMillis)
	}
	if cfg.MetadataCache.CleanupIntervalMinutes == 0 {
		cfg.MetadataCache.CleanupIntervalMinutes = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
