package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	AppEnv             string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	JWTSecret          string
	FrontendURL        string
	AllowedEmails      []string // Empty allows every Google account
	AllowedOrigins     []string

	LogLevel  string
	LogFormat string // text or json

	ExportWorkers       int
	ExportFetchTimeout  time.Duration
	ExportMaxImageBytes int64

	S3BucketName string
	S3Prefix     string
	S3BaseURL    string

	RateLimitRPS   float64
	RateLimitBurst int

	LadderCacheSize int
}

func Load() *Config {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:gallery.sqlite"),
		AppEnv:             getEnv("APP_ENV", "local"),
		BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedEmails:      getList("ALLOWED_EMAILS", nil),
		AllowedOrigins:     getList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ExportWorkers:       getInt("EXPORT_WORKERS", 1),
		ExportFetchTimeout:  getDuration("EXPORT_FETCH_TIMEOUT", 30*time.Second),
		ExportMaxImageBytes: int64(getInt("EXPORT_MAX_IMAGE_BYTES", 50<<20)),

		S3BucketName: getEnv("S3_BUCKET_NAME", ""),
		S3Prefix:     getEnv("S3_PREFIX", ""),
		S3BaseURL:    getEnv("S3_BASE_URL", ""),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 40),

		LadderCacheSize: getInt("LADDER_CACHE_SIZE", 4096),
	}
}

// IsProduction reports whether cookies must be marked Secure
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

// getDuration accepts Go durations ("45s") or plain seconds ("45")
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
