package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL   string
	DBAutoMigrate bool

	// Redis
	RedisURL string

	// JWT (hosted identity provider)
	JWTSecret    string
	JWTAccessTTL time.Duration
	JWTIssuer    string
	JWTAudience  string

	// CORS
	AllowedOrigins []string

	// Redirects
	FrontendURL    string
	BackendURL     string
	DefaultLang    string
	SupportedLangs []string

	// Pricing
	MinPurchaseUSD     decimal.Decimal
	MaxPurchaseUSD     decimal.Decimal
	TokensPerUSD       int64
	CustomPlanMargin   decimal.Decimal
	CustomPlanMinCents int64
	CustomPlanMaxCents int64
	PlanCatalogPath    string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIURL        string

	// NOWPayments
	NowPaymentsAPIKey    string
	NowPaymentsIPNSecret string
	NowPaymentsBaseURL   string

	// Email
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// Kafka
	KafkaBrokers      []string
	KafkaTopicCredits string

	// Checkout throttle
	CheckoutRateLimit  int64
	CheckoutRateWindow time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DatabaseURL:   getEnv("DATABASE_URL", "sqlite:./data/billing.db"),
		DBAutoMigrate: parseBool(getEnv("DB_AUTO_MIGRATE", "true"), true),

		RedisURL: getEnv("REDIS_URL", ""),

		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTAccessTTL: parseDuration(getEnv("JWT_ACCESS_TTL", "1h"), time.Hour),
		JWTIssuer:    getEnv("JWT_ISSUER", ""),
		JWTAudience:  getEnv("JWT_AUDIENCE", ""),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8080"),
		DefaultLang:    getEnv("DEFAULT_LANG", "en"),
		SupportedLangs: parseStringSlice(getEnv("SUPPORTED_LANGS", "en,ru,kk")),

		MinPurchaseUSD:     parseDecimal(getEnv("MIN_PURCHASE_USD", "14.00"), decimal.RequireFromString("14.00")),
		MaxPurchaseUSD:     parseDecimal(getEnv("MAX_PURCHASE_USD", "1000000.00"), decimal.RequireFromString("1000000.00")),
		TokensPerUSD:       parseInt64(getEnv("TOKENS_PER_USD", "3"), 3),
		CustomPlanMargin:   parseDecimal(getEnv("CUSTOM_PLAN_MARGIN", "0.75"), decimal.RequireFromString("0.75")),
		CustomPlanMinCents: parseInt64(getEnv("CUSTOM_PLAN_MIN_CENTS", "100"), 100),
		CustomPlanMaxCents: parseInt64(getEnv("CUSTOM_PLAN_MAX_CENTS", "100000000"), 100000000),
		PlanCatalogPath:    getEnv("PLAN_CATALOG_PATH", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeAPIURL:        getEnv("STRIPE_API_URL", ""),

		NowPaymentsAPIKey:    getEnv("NOWPAYMENTS_API_KEY", ""),
		NowPaymentsIPNSecret: getEnv("NOWPAYMENTS_IPN_SECRET", ""),
		NowPaymentsBaseURL:   getEnv("NOWPAYMENTS_BASE_URL", "https://api.nowpayments.io"),

		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "billing@localhost"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Billing"),

		KafkaBrokers:      parseStringSlice(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicCredits: getEnv("KAFKA_TOPIC_CREDITS", "billing.tokens-credited"),

		CheckoutRateLimit:  parseInt64(getEnv("CHECKOUT_RATE_LIMIT", "10"), 10),
		CheckoutRateWindow: parseDuration(getEnv("CHECKOUT_RATE_WINDOW", "1m"), time.Minute),

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt64(s string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseDecimal(s string, defaultValue decimal.Decimal) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !value.IsPositive() {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// StripeEnabled reports whether card checkout can be offered
func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

// NowPaymentsEnabled reports whether crypto checkout can be offered
func (c *Config) NowPaymentsEnabled() bool {
	return c.NowPaymentsAPIKey != "" && c.NowPaymentsIPNSecret != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
