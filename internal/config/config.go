package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	AppPort string
	AppURL  string
	AppEnv  string

	// Redirect targets the shopper lands on after the gateway callback.
	SuccessURL string
	CartURL    string

	// bKash credentials used when no admin-managed settings row exists.
	BkashSandbox        bool
	BkashUsername       string
	BkashPassword       string
	BkashAppKey         string
	BkashAppSecret      string
	BkashSandboxBaseURL string
	BkashLiveBaseURL    string

	// Reconciliation tuning for the execute path.
	ExecuteMaxRetries int
	ExecuteBackoff    time.Duration
}

const (
	defaultSandboxBaseURL = "https://tokenized.sandbox.bka.sh/v1.2.0-beta"
	defaultLiveBaseURL    = "https://tokenized.pay.bka.sh/v1.2.0-beta"
)

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		AppPort: getenv("APP_PORT", "8080"),
		AppURL:  getenv("APP_URL", "http://localhost:8080"),
		AppEnv:  os.Getenv("APP_ENV"),

		SuccessURL: getenv("CHECKOUT_SUCCESS_URL", "/checkout/success"),
		CartURL:    getenv("CHECKOUT_CART_URL", "/checkout/cart"),

		BkashSandbox:        os.Getenv("BKASH_SANDBOX") == "1",
		BkashUsername:       os.Getenv("BKASH_USERNAME"),
		BkashPassword:       os.Getenv("BKASH_PASSWORD"),
		BkashAppKey:         os.Getenv("BKASH_APP_KEY"),
		BkashAppSecret:      os.Getenv("BKASH_APP_SECRET"),
		BkashSandboxBaseURL: getenv("BKASH_SANDBOX_BASE_URL", defaultSandboxBaseURL),
		BkashLiveBaseURL:    getenv("BKASH_LIVE_BASE_URL", defaultLiveBaseURL),

		ExecuteMaxRetries: getenvInt("BKASH_EXECUTE_MAX_RETRIES", 1),
		ExecuteBackoff:    getenvDuration("BKASH_EXECUTE_BACKOFF", 2*time.Second),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// BkashBaseURL picks the gateway endpoint by sandbox flag.
func (c *Config) BkashBaseURL() string {
	if c.BkashSandbox {
		return c.BkashSandboxBaseURL
	}
	return c.BkashLiveBaseURL
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
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

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
