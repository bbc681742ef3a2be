package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sync     SyncConfig
	Social   SocialConfig
}

type ServerConfig struct {
	Host        string
	Port        int
	Secure      bool   // Use HTTPS-only semantics (HSTS)
	Environment string // "development", "production", "test"
	Debug       bool
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SyncConfig controls the deferred mutation queue's remote delivery.
type SyncConfig struct {
	BaseURL       string // remote sync API; empty disables delivery
	ProbeInterval time.Duration
	DrainInterval time.Duration
}

// SocialConfig holds engine tunables.
type SocialConfig struct {
	FeedRetention   int           // max items kept in the activity log
	ProfileCacheTTL time.Duration // short TTL; visibility is recomputed per call
	SearchLimit     int
	SearchRateLimit int // requests per minute per athlete
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        getEnvInt("SERVER_PORT", 8080),
			Secure:      getEnvBool("SERVER_SECURE", false),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvBool("SERVER_DEBUG", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "social"),
			Password: getEnv("DB_PASSWORD", "social"),
			DBName:   getEnv("DB_NAME", "socialgraph"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Sync: SyncConfig{
			BaseURL:       getEnv("SYNC_BASE_URL", ""),
			ProbeInterval: getEnvDuration("SYNC_PROBE_INTERVAL", 30*time.Second),
			DrainInterval: getEnvDuration("SYNC_DRAIN_INTERVAL", 10*time.Second),
		},
		Social: SocialConfig{
			FeedRetention:   getEnvInt("SOCIAL_FEED_RETENTION", 200),
			ProfileCacheTTL: getEnvDuration("SOCIAL_PROFILE_CACHE_TTL", 5*time.Minute),
			SearchLimit:     getEnvInt("SOCIAL_SEARCH_LIMIT", 20),
			SearchRateLimit: getEnvInt("SOCIAL_SEARCH_RATE_LIMIT", 30),
		},
	}

	if cfg.Social.FeedRetention < 1 {
		return nil, fmt.Errorf("SOCIAL_FEED_RETENTION must be positive, got %d", cfg.Social.FeedRetention)
	}
	if cfg.Social.SearchLimit < 1 {
		return nil, fmt.Errorf("SOCIAL_SEARCH_LIMIT must be positive, got %d", cfg.Social.SearchLimit)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
