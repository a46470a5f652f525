package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	DBDriver string
	DBHost   string
	DBUser   string
	DBPass   string
	DBName   string
	DBPort   string

	JWTKey   string
	Currency string

	FrontendOrigin string

	StripeApiURL        string
	StripeSecretKey     string
	StripeWebhookSecret string

	PdfMonkeyApiURL        string
	PdfMonkeyApiKey        string
	PdfMonkeyTemplateID    string
	PdfMonkeyWebhookSecret string

	ClerkWebhookSecret string

	MediaUploadURL string
	MediaApiKey    string

	SendgridApiKey string
	EmailSender    string
	EmailFromName  string

	ProviderTimeoutSeconds  int
	ReconcileAfterMinutes   int
	WebhookToleranceSeconds int
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:     getEnv("PORT", "3000"),
		DBDriver: getEnv("DB_DRIVER", "postgres"),
		DBHost:   getEnv("DB_HOST", "localhost"),
		DBUser:   getEnv("DB_USER", "postgres"),
		DBPass:   getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "lms"),
		DBPort:   getEnv("DB_PORT", "5432"),

		JWTKey:   getEnv("JWT_SECRET_KEY", "defaultSecret"),
		Currency: getEnv("CURRENCY", "usd"),

		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),

		StripeApiURL:        getEnv("STRIPE_API_URL", "https://api.stripe.com"),
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),

		PdfMonkeyApiURL:        getEnv("PDFMONKEY_API_URL", "https://api.pdfmonkey.io"),
		PdfMonkeyApiKey:        getEnv("PDFMONKEY_API_KEY", ""),
		PdfMonkeyTemplateID:    getEnv("PDFMONKEY_TEMPLATE_ID", ""),
		PdfMonkeyWebhookSecret: getEnv("PDFMONKEY_WEBHOOK_SECRET", ""),

		ClerkWebhookSecret: getEnv("CLERK_WEBHOOK_SECRET", ""),

		MediaUploadURL: getEnv("MEDIA_UPLOAD_URL", ""),
		MediaApiKey:    getEnv("MEDIA_API_KEY", ""),

		SendgridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@lms.local"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "LMS"),

		ProviderTimeoutSeconds:  getEnvInt("PROVIDER_TIMEOUT_SECONDS", 15),
		ReconcileAfterMinutes:   getEnvInt("RECONCILE_AFTER_MINUTES", 30),
		WebhookToleranceSeconds: getEnvInt("WEBHOOK_TOLERANCE_SECONDS", 300),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.StripeWebhookSecret == "" {
		log.Println("Warning: STRIPE_WEBHOOK_SECRET is empty. Payment webhooks will be rejected.")
	}
	if AppConfig.PdfMonkeyWebhookSecret == "" {
		log.Println("Warning: PDFMONKEY_WEBHOOK_SECRET is empty. Certificate webhooks will be rejected.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
