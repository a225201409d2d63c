package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every environment-driven setting, loaded once at startup.
type Config struct {
	AppPort string

	DatabaseURL string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string
	CheckoutBaseURL     string

	AdminPassword     string
	AdminPasswordHash string
	AdminEmail        string

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	AllowedOrigins []string

	PublicDir string
	ImageDir  string

	LogLevel string
}

func Load() Config {
	return Config{
		AppPort:             getenv("APP_PORT", "4242"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            getenv("CURRENCY", "usd"),
		CheckoutBaseURL:     getenv("CHECKOUT_BASE_URL", "http://localhost:4242"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash:   os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminEmail:          os.Getenv("ADMIN_EMAIL"),
		SMTPHost:            os.Getenv("SMTP_HOST"),
		SMTPPort:            getenvInt("SMTP_PORT", 587),
		SMTPUser:            os.Getenv("SMTP_USER"),
		SMTPPass:            os.Getenv("SMTP_PASS"),
		EmailFrom:           getenv("EMAIL_FROM", os.Getenv("SMTP_USER")),
		AllowedOrigins:      splitCSV(getenv("ALLOWED_ORIGINS", "http://localhost:5500")),
		PublicDir:           getenv("PUBLIC_DIR", "public"),
		ImageDir:            getenv("IMAGE_DIR", "public/images"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
