package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the binaries need from the environment. It is
// loaded once in main and handed to constructors; nothing reads os.Getenv
// past startup.
type Config struct {
	HTTPAddr    string
	DatabaseDSN string

	AuthSecret string
	TokenTTL   time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	MediaBaseURL string
	MediaAPIKey  string

	CORSOrigin string

	RateBurst  int
	RatePerSec int

	MaxBodyBytes int64
}

// Load reads configuration from the environment, falling back to defaults
// suitable for local development. The auth secret has no default; callers
// must check it before issuing tokens.
func Load() Config {
	return Config{
		HTTPAddr:    getenv("BOARD_HTTP_ADDR", ":8080"),
		DatabaseDSN: getenv("BOARD_PG_DSN", ""),

		AuthSecret: os.Getenv("BOARD_AUTH_SECRET"),
		TokenTTL:   getenvDuration("BOARD_TOKEN_TTL", time.Hour),

		SMTPHost:     getenv("BOARD_SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getenvInt("BOARD_SMTP_PORT", 587),
		SMTPUser:     os.Getenv("BOARD_SMTP_USER"),
		SMTPPassword: os.Getenv("BOARD_SMTP_PASS"),
		MailFrom:     getenv("BOARD_MAIL_FROM", os.Getenv("BOARD_SMTP_USER")),

		MediaBaseURL: getenv("BOARD_MEDIA_BASE_URL", ""),
		MediaAPIKey:  os.Getenv("BOARD_MEDIA_API_KEY"),

		CORSOrigin: getenv("BOARD_CORS_ORIGIN", "http://localhost:5173"),

		RateBurst:  getenvInt("BOARD_RATE_BURST", 20),
		RatePerSec: getenvInt("BOARD_RATE_PER_SEC", 10),

		MaxBodyBytes: int64(getenvInt("BOARD_MAX_BODY_BYTES", 10<<20)),
	}
}

func getenv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
