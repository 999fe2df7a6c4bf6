package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the server needs, resolved once at startup and
// passed down explicitly.
type Config struct {
	Port    string
	BaseURL string

	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string

	ElasticURL      string
	ElasticUser     string
	ElasticPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret     string
	SessionSecret string

	GoogleClientID     string
	GoogleClientSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	// KES per USD, used to size Stripe checkout sessions.
	StripeKESPerUSD float64

	MpesaEnvironment    string
	MpesaConsumerKey    string
	MpesaConsumerSecret string
	MpesaShortcode      string
	MpesaPasskey        string

	PickupMtaaniAPIKey string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	CORSOrigins string
}

// Load reads .env (when present) and resolves the typed config.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️ No .env file found — using process environment")
	} else {
		log.Println("✅ .env loaded")
	}

	return Config{
		Port:    getenv("PORT", "8080"),
		BaseURL: getenv("BASE_URL", "http://localhost:8080"),

		MongoURI: getenv("MONGO_URL", "mongodb://localhost:27017"),
		DBName:   getenv("DB_NAME", "jojos_boutick"),

		RedisAddr:     getenv("REDIS_HOST", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ElasticURL:      os.Getenv("ELASTIC_URL"),
		ElasticUser:     os.Getenv("ELASTIC_USER"),
		ElasticPassword: os.Getenv("ELASTIC_PASSWORD"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "product-images"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",

		JWTSecret:     getenv("JWT_SECRET", "super_secret"),
		SessionSecret: getenv("SESSION_SECRET", "session_secret"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		StripeSecretKey:     os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeKESPerUSD:     getenvFloat("STRIPE_KES_PER_USD", 130),

		MpesaEnvironment:    getenv("MPESA_ENVIRONMENT", "sandbox"),
		MpesaConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		MpesaConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		MpesaShortcode:      os.Getenv("MPESA_SHORTCODE"),
		MpesaPasskey:        os.Getenv("MPESA_PASSKEY"),

		PickupMtaaniAPIKey: os.Getenv("PICKUPMTAANI_API_KEY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getenv("EMAIL_FROM", "noreply@jojosboutick.com"),

		CORSOrigins: getenv("CORS_ORIGINS", "*"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}
