// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Languages lists the language domains served by the process.
var Languages = []string{"en", "jp"}

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr        string
	DBDriver        string            // sqlite3, postgres or memory
	DatabaseURLs    map[string]string // per language domain
	Timezone        string
	LogLevel        string
	LogFormat       string
	StreakGrace     bool
	TelegramToken   string
	EnableScheduler bool
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads configuration from the environment, providing sensible defaults.
func Load() Config {
	// Load .env file if it exists (useful for development)
	_ = godotenv.Load()

	return Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		DBDriver: getEnv("DB_DRIVER", "sqlite3"),
		DatabaseURLs: map[string]string{
			"en": getEnv("DATABASE_URL_EN", "data/voca_en.db"),
			"jp": getEnv("DATABASE_URL_JP", "data/voca_jp.db"),
		},
		Timezone:        getEnv("TIMEZONE", "Asia/Seoul"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		StreakGrace:     getBool("STREAK_GRACE", false),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		EnableScheduler: getBool("ENABLE_SCHEDULER", true),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getInt("RATE_LIMIT_BURST", 20),
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDriver != "memory" {
		for _, lang := range Languages {
			if c.DatabaseURLs[lang] == "" {
				return fmt.Errorf("DATABASE_URL_%s is required", strings.ToUpper(lang))
			}
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1")
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return n
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return f
	}
	return fallback
}
