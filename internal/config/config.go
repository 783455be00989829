package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI           string
	DBName             string
	JWTSecret          string
	AppMode            string
	AccessTokenTTL     time.Duration
	WompiBaseURL       string
	WompiClientID      string
	WompiClientSecret  string
	WompiWebhookSecret string
	OutboxPollInterval time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:           getEnvOrDefault("MONGO_URI", ""),
		DBName:             getEnvOrDefault("DB_NAME", "sublimarket"),
		JWTSecret:          getEnvOrDefault("JWT_SECRET", ""),
		AppMode:            getEnvOrDefault("APP_ENV", "development"),
		AccessTokenTTL:     getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
		WompiBaseURL:       getEnvOrDefault("WOMPI_BASE_URL", "https://api.wompi.sv/v1"),
		WompiClientID:      getEnvOrDefault("WOMPI_CLIENT_ID", ""),
		WompiClientSecret:  getEnvOrDefault("WOMPI_CLIENT_SECRET", ""),
		WompiWebhookSecret: getEnvOrDefault("WOMPI_WEBHOOK_SECRET", ""),
		OutboxPollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 15, time.Second),
	}

	// The fictitious gateway must never mask real payment failures in
	// production. Fail at startup instead.
	if AppEnv.IsProduction() && !AppEnv.GatewayConfigured() {
		log.Fatal("WOMPI credentials are required when APP_ENV=production")
	}
}

// GatewayConfigured reports whether every Wompi credential is present. When
// false the fictitious gateway takes over.
func (c Config) GatewayConfigured() bool {
	return c.WompiClientID != "" && c.WompiClientSecret != "" && c.WompiWebhookSecret != ""
}

func (c Config) IsProduction() bool {
	return c.AppMode == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
