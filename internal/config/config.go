package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBUrl     string
	JWTSecret string
	AppEnv    string

	FrontendURL string
	BackendURL  string

	StripeSecretKey     string
	StripeWebhookSecret string

	LiqPayPublicKey  string
	LiqPayPrivateKey string
	UAHPerUSD        float64

	PlatformFeeRate float64

	// When true a failed payment releases the tentative client
	// assignment made at booking time.
	ReleaseClientOnFailedPayment bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:                         getEnv("PORT", "8080"),
		DBUrl:                        getEnv("DB_URL", ""),
		JWTSecret:                    jwtSecret,
		AppEnv:                       normalizeEnv(getEnv("APP_ENV", "production")),
		FrontendURL:                  getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:                   getEnv("BACKEND_URL", "http://localhost:8080"),
		StripeSecretKey:              getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:          getEnv("STRIPE_WEBHOOK_SECRET", ""),
		LiqPayPublicKey:              getEnv("LIQPAY_PUBLIC_KEY", ""),
		LiqPayPrivateKey:             getEnv("LIQPAY_PRIVATE_KEY", ""),
		UAHPerUSD:                    getEnvFloat("UAH_PER_USD", 41),
		PlatformFeeRate:              getEnvFloat("PLATFORM_FEE_RATE", 0.10),
		ReleaseClientOnFailedPayment: getEnvBool("RELEASE_CLIENT_ON_FAILED_PAYMENT", false),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvFloat(key string, fallback float64) float64 {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
