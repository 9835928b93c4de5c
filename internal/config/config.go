package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultSessionSecret = "default-session-secret-change-in-production"

type Config struct {
	Port           string
	BackendURL     string
	BackendTimeout time.Duration
	DBDriver       string
	DBUrl          string
	SessionSecret  string
	CookieSecure   bool
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
	Currency       string
	LogLevel       string
	MetricsToken   string
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println(".env file not found, using defaults")
	}

	return Config{
		Port:           getEnv("PORT", "8080"),
		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:4000"), "/"),
		BackendTimeout: getDuration("BACKEND_TIMEOUT", 0),
		DBDriver:       getEnv("DB_DRIVER", "sqlite"),
		DBUrl:          getEnv("DB_URL", "file:dashboard.db"),
		SessionSecret:  getEnv("SESSION_SECRET", defaultSessionSecret),
		CookieSecure:   getBool("COOKIE_SECURE", false),
		RateLimit:      getFloat("RATE_LIMIT", 10),
		RateBurst:      getInt("RATE_BURST", 20),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),
		Currency:       getEnv("CURRENCY", "$"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),
	}
}

// UsesDefaultSecret reports whether SESSION_SECRET was left unset.
func (c Config) UsesDefaultSecret() bool {
	return c.SessionSecret == defaultSessionSecret
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// BACKEND_TIMEOUT accepts whole seconds or a Go duration string.
func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
