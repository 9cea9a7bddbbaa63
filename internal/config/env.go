package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Env is built once at startup and passed by value to every component.
type Env struct {
	AppAddr      string
	GinMode      string
	Timezone     string
	ProjectName  string
	FrontendHost string

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBMaxOpenConns int

	JWTSecret string
	JWTTTL    time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string
	StripeCurrency      string

	GoogleMapsAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	EmailsFrom   string

	RedisAddr       string
	PricingCacheTTL time.Duration

	KafkaBrokers      []string
	KafkaBookingTopic string

	CORSAllowedOrigins []string
}

func LoadEnv() Env {
	// .env is optional outside local development
	_ = godotenv.Load()

	env := Env{
		AppAddr:  getEnv("APP_ADDR", ":8080"),
		GinMode:  getEnv("GIN_MODE", ""),
		Timezone: getEnv("APP_TIMEZONE", "Europe/Madrid"),

		ProjectName:  getEnv("PROJECT_NAME", "Taxi Booking"),
		FrontendHost: getEnv("FRONTEND_HOST", "http://localhost:3000"),

		DBHost:         getEnv("DB_HOST", "127.0.0.1"),
		DBPort:         getEnvInt("DB_PORT", 3306),
		DBUser:         getEnv("DB_USER", "root"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "taxi_app"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "http://localhost:3000/booking/success"),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "http://localhost:3000/booking/cancel"),
		StripeCurrency:      strings.ToLower(getEnv("STRIPE_CURRENCY", "eur")),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailsFrom:   getEnv("EMAILS_FROM", "bookings@example.com"),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		PricingCacheTTL: time.Duration(getEnvInt("PRICING_CACHE_TTL_SECONDS", 300)) * time.Second,

		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaBookingTopic: getEnv("KAFKA_BOOKING_TOPIC", "booking-events"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
	}

	if env.StripeSecretKey == "" {
		log.Println("WARNING: STRIPE_SECRET_KEY not set, checkout sessions will fail")
	}
	if env.StripeWebhookSecret == "" {
		log.Println("WARNING: STRIPE_WEBHOOK_SECRET not set, every webhook will be rejected")
	}
	if env.JWTSecret == "change-me" {
		log.Println("WARNING: JWT_SECRET not set, using insecure default")
	}

	return env
}

// Location resolves the configured time zone, falling back to UTC.
func (e Env) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		log.Printf("WARNING: unknown APP_TIMEZONE %q, using UTC", e.Timezone)
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
