package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// Admin
	AdminEmails []string // Super-admin allow-list (lowercased)

	// Invoicing
	InvoiceDueDays     int
	MaxEmailRecipients int

	// Plan default limits. -1 means unlimited.
	FreeClients            int
	FreeInvoicesPerMonth   int
	FreeBudgetsPerMonth    int
	FreeRecurringTemplates int

	BasicClients            int
	BasicInvoicesPerMonth   int
	BasicBudgetsPerMonth    int
	BasicRecurringTemplates int

	ProClients            int
	ProInvoicesPerMonth   int
	ProBudgetsPerMonth    int
	ProRecurringTemplates int

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string

	// AWS S3 (optional archive of sent invoice PDFs)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string

	// App Defaults
	AppName string

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getEnvInt := func(key string, defaultValue int) (int, error) {
		v, convErr := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
		if convErr != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, convErr)
		}
		return v, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "kashmoney")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "billing@kash-money.example.com")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.AppName = getEnv("APP_NAME", "Kash Money")

	// Super-admin allow-list: comma-separated emails, compared case-insensitively.
	for _, e := range strings.Split(getEnv("ADMIN_EMAILS", ""), ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, e)
		}
	}

	// Load numeric and time duration values with defaults and parsing
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	if cfg.SmtpPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}

	if cfg.InvoiceDueDays, err = getEnvInt("INVOICE_DUE_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.MaxEmailRecipients, err = getEnvInt("MAX_EMAIL_RECIPIENTS", 3); err != nil {
		return nil, err
	}

	// Plan defaults. Pro tier is unlimited everywhere.
	if cfg.FreeClients, err = getEnvInt("FREE_CLIENTS", 1); err != nil {
		return nil, err
	}
	if cfg.FreeInvoicesPerMonth, err = getEnvInt("FREE_INVOICES_PER_MONTH", 3); err != nil {
		return nil, err
	}
	if cfg.FreeBudgetsPerMonth, err = getEnvInt("FREE_BUDGETS_PER_MONTH", 2); err != nil {
		return nil, err
	}
	if cfg.FreeRecurringTemplates, err = getEnvInt("FREE_RECURRING_TEMPLATES", 10); err != nil {
		return nil, err
	}
	if cfg.BasicClients, err = getEnvInt("BASIC_CLIENTS", 5); err != nil {
		return nil, err
	}
	if cfg.BasicInvoicesPerMonth, err = getEnvInt("BASIC_INVOICES_PER_MONTH", 20); err != nil {
		return nil, err
	}
	if cfg.BasicBudgetsPerMonth, err = getEnvInt("BASIC_BUDGETS_PER_MONTH", 10); err != nil {
		return nil, err
	}
	if cfg.BasicRecurringTemplates, err = getEnvInt("BASIC_RECURRING_TEMPLATES", 50); err != nil {
		return nil, err
	}
	if cfg.ProClients, err = getEnvInt("PRO_CLIENTS", -1); err != nil {
		return nil, err
	}
	if cfg.ProInvoicesPerMonth, err = getEnvInt("PRO_INVOICES_PER_MONTH", -1); err != nil {
		return nil, err
	}
	if cfg.ProBudgetsPerMonth, err = getEnvInt("PRO_BUDGETS_PER_MONTH", -1); err != nil {
		return nil, err
	}
	if cfg.ProRecurringTemplates, err = getEnvInt("PRO_RECURRING_TEMPLATES", -1); err != nil {
		return nil, err
	}

	// Rate Limiting
	if cfg.RateLimitBucketSize, err = getEnvInt("RATE_LIMIT_BUCKET_SIZE", 8); err != nil {
		return nil, err
	}
	if cfg.RateLimitRefillRate, err = getEnvInt("RATE_LIMIT_REFILL_RATE", 4); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsAdminEmail reports whether the given email is on the super-admin allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}
