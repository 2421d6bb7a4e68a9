package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Data providers
	FMP          ProviderConfig
	AlphaVantage ProviderConfig
	Yahoo        ProviderConfig
	Finnhub      ProviderConfig
	Polygon      ProviderConfig

	// Scoring
	Scoring ScoringConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration. Redis is optional: when disabled,
// quota usage is tracked in process memory only.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProviderConfig holds credentials and declared limits for one data provider.
// Limits are what the vendor documents for the account tier, not measured.
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	DailyLimit  int
	MinuteLimit int
	Enabled     bool
}

// ScoringConfig holds settings for the daily scoring run
type ScoringConfig struct {
	Workers          int           // concurrent ticker workers
	MaxTickers       int           // 0 = unlimited
	TimeBudget       time.Duration // wall-clock budget per run
	RetentionDays    int           // historical score retention
	ProviderPriority []string      // fallback order, highest priority first
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "funddash"),
			User:            getEnv("DB_USER", "funddash"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Data providers. Default limits match the documented free tiers;
		// override per deployment when running on paid plans.
		FMP: ProviderConfig{
			APIKey:      getEnv("FMP_API_KEY", ""),
			BaseURL:     getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
			DailyLimit:  getEnvAsInt("FMP_DAILY_LIMIT", 250),
			MinuteLimit: getEnvAsInt("FMP_MINUTE_LIMIT", 10),
			Enabled:     getEnvAsBool("FMP_ENABLED", true),
		},
		AlphaVantage: ProviderConfig{
			APIKey:      getEnv("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:     getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			DailyLimit:  getEnvAsInt("ALPHAVANTAGE_DAILY_LIMIT", 25),
			MinuteLimit: getEnvAsInt("ALPHAVANTAGE_MINUTE_LIMIT", 5),
			Enabled:     getEnvAsBool("ALPHAVANTAGE_ENABLED", true),
		},
		Yahoo: ProviderConfig{
			BaseURL:     getEnv("YAHOO_BASE_URL", "https://finance.yahoo.com"),
			DailyLimit:  getEnvAsInt("YAHOO_DAILY_LIMIT", 2000),
			MinuteLimit: getEnvAsInt("YAHOO_MINUTE_LIMIT", 60),
			Enabled:     getEnvAsBool("YAHOO_ENABLED", true),
		},
		Finnhub: ProviderConfig{
			APIKey:      getEnv("FINNHUB_API_KEY", ""),
			BaseURL:     getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
			DailyLimit:  getEnvAsInt("FINNHUB_DAILY_LIMIT", 3600),
			MinuteLimit: getEnvAsInt("FINNHUB_MINUTE_LIMIT", 60),
			Enabled:     getEnvAsBool("FINNHUB_ENABLED", true),
		},
		Polygon: ProviderConfig{
			APIKey:      getEnv("POLYGON_API_KEY", ""),
			BaseURL:     getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),
			DailyLimit:  getEnvAsInt("POLYGON_DAILY_LIMIT", 7200),
			MinuteLimit: getEnvAsInt("POLYGON_MINUTE_LIMIT", 5),
			Enabled:     getEnvAsBool("POLYGON_ENABLED", true),
		},

		// Scoring
		Scoring: ScoringConfig{
			Workers:       getEnvAsInt("SCORING_WORKERS", 4),
			MaxTickers:    getEnvAsInt("SCORING_MAX_TICKERS", 0),
			TimeBudget:    getEnvAsDuration("SCORING_TIME_BUDGET", "4h"),
			RetentionDays: getEnvAsInt("SCORING_RETENTION_DAYS", 365),
			ProviderPriority: getEnvAsSlice("SCORING_PROVIDER_PRIORITY",
				[]string{"fmp", "yahoo", "finnhub", "polygon", "alphavantage"}),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scoring.Workers < 1 {
		return fmt.Errorf("SCORING_WORKERS must be at least 1")
	}

	if c.Scoring.RetentionDays < 1 {
		return fmt.Errorf("SCORING_RETENTION_DAYS must be at least 1")
	}

	return nil
}

// Provider returns the config for a provider by its registry name.
// Unknown names return a zero config with Enabled=false.
func (c *Config) Provider(name string) ProviderConfig {
	switch name {
	case "fmp":
		return c.FMP
	case "alphavantage":
		return c.AlphaVantage
	case "yahoo":
		return c.Yahoo
	case "finnhub":
		return c.Finnhub
	case "polygon":
		return c.Polygon
	default:
		return ProviderConfig{}
	}
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		fallback, _ := time.ParseDuration(defaultValue)
		return fallback
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
