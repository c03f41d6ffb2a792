package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Dispatch DispatchConfig
	Calendar CalendarConfig
	Auth     AuthConfig
	Listen   string
	Debug    bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	URL string
}

// CacheConfig carries the per-aggregate TTLs. Unread counts change most
// frequently and get the shortest TTL.
type CacheConfig struct {
	ProjectDetailTTL time.Duration
	ProjectListTTL   time.Duration
	TeamListTTL      time.Duration
	UnreadCountTTL   time.Duration
}

type DispatchConfig struct {
	Workers int
	Buffer  int
	Timeout time.Duration
	Handoff time.Duration
}

type CalendarConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AuthConfig struct {
	TestMode   bool
	TestSecret string
	Audience   string
	Domain     string
}

// Load reads configuration from the environment, with a .env bootstrap
// for local development.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "flowboard"),
			Password: getEnv("DB_PASSWORD", "flowboard"),
			DBName:   getEnv("DB_NAME", "flowboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Cache: CacheConfig{
			ProjectDetailTTL: getDuration("CACHE_PROJECT_TTL", 60*time.Second),
			ProjectListTTL:   getDuration("CACHE_PROJECTS_TTL", 45*time.Second),
			TeamListTTL:      getDuration("CACHE_TEAMS_TTL", 45*time.Second),
			UnreadCountTTL:   getDuration("CACHE_UNREAD_TTL", 15*time.Second),
		},
		Dispatch: DispatchConfig{
			Workers: getInt("DISPATCH_WORKERS", 8),
			Buffer:  getInt("DISPATCH_BUFFER", 1024),
			Timeout: getDuration("DISPATCH_TIMEOUT", 30*time.Second),
			Handoff: getDuration("DISPATCH_HANDOFF_TIMEOUT", 15*time.Millisecond),
		},
		Calendar: CalendarConfig{
			BaseURL: getEnv("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3"),
			Timeout: getDuration("CALENDAR_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			TestMode:   getEnv("AUTH_TEST_MODE", "") == "1",
			TestSecret: getEnv("TEST_JWT_SECRET", ""),
			Audience:   getEnv("AUTH_AUDIENCE", ""),
			Domain:     getEnv("AUTH_DOMAIN", ""),
		},
		Listen: getEnv("LISTEN_ADDR", ":8080"),
		Debug:  getBool("DEBUG", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
