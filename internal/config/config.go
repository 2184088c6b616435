package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	JWTSecret             string
	MongoURI              string
	DBName                string
	SkipAuth              bool
	Environment           string
	PortalBaseURL         string // base URL used when rendering portal/workspace links
	WebhookTimeoutSeconds int
	ScanSchedule          string // cron spec for the automation scan loop
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		JWTSecret:             getEnv("JWT_SECRET", "secret"),
		MongoURI:              getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:                getEnv("DB_NAME", "go-opsdesk"),
		SkipAuth:              getEnv("SKIP_AUTH", "false") == "true",
		Environment:           getEnv("ENVIRONMENT", "development"),
		PortalBaseURL:         getEnv("PORTAL_BASE_URL", "http://localhost:3000"),
		WebhookTimeoutSeconds: getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 10),
		ScanSchedule:          getEnv("SCAN_SCHEDULE", "@every 1m"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
