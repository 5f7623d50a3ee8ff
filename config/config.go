package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	RequestTimeout time.Duration

	Mongo struct {
		URI          string
		DBName       string
		Transactions bool
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	JWT struct {
		Secret   string
		TokenTTL time.Duration
	}

	Pricing Pricing
}

// Pricing holds the checkout delivery and discount policy.
type Pricing struct {
	DeliveryCharge        float64
	FreeDeliveryThreshold float64
	DiscountPercent       float64
	DiscountMinSubtotal   float64
}

// LoadEnv loads a .env file when one is present. Existing variables win.
func LoadEnv() {
	_ = godotenv.Load()
}

func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func Load() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		Port:     GetEnv("PORT", "8080"),
		GinMode:  GetEnv("GIN_MODE", "release"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Mongo.URI = os.Getenv("MONGO_URI")
	if cfg.Mongo.URI == "" {
		return nil, fmt.Errorf("MONGO_URI must be set")
	}
	cfg.Mongo.DBName = os.Getenv("DB_NAME")
	if cfg.Mongo.DBName == "" {
		return nil, fmt.Errorf("DB_NAME must be set")
	}
	if cfg.Mongo.Transactions, err = boolEnv("MONGO_TRANSACTIONS", true); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = GetEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}
	if cfg.JWT.TokenTTL, err = durationEnv("TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.Pricing, err = loadPricing(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadPricing() (Pricing, error) {
	var (
		p   Pricing
		err error
	)
	if p.DeliveryCharge, err = moneyEnv("DELIVERY_CHARGE", 50); err != nil {
		return p, err
	}
	if p.FreeDeliveryThreshold, err = moneyEnv("FREE_DELIVERY_THRESHOLD", 0); err != nil {
		return p, err
	}
	if p.DiscountMinSubtotal, err = moneyEnv("DISCOUNT_MIN_SUBTOTAL", 0); err != nil {
		return p, err
	}
	if p.DiscountPercent, err = floatEnv("DISCOUNT_PERCENT", 0); err != nil {
		return p, err
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return p, fmt.Errorf("DISCOUNT_PERCENT must be between 0 and 100, got %v", p.DiscountPercent)
	}
	return p, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q: %w", key, raw, err)
	}
	return b, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return n, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, raw, err)
	}
	return f, nil
}

func moneyEnv(key string, fallback float64) (float64, error) {
	f, err := floatEnv(key, fallback)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", key, f)
	}
	return f, nil
}
