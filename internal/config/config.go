package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath      string
	JWTPublicKeyPath       string
	JWTExpiry              time.Duration
	RefreshTokenExpiryDays int

	MailProvider    string // "smtp" | "sendgrid"
	MailFromName    string
	SMTPHost        string
	SMTPPort        string
	SMTPFrom        string
	SMTPUsername    string
	SMTPPassword    string
	SendgridAPIKey  string
	SendgridSandbox bool

	SNSRegion                 string
	SNSPlatformApplicationARN string

	DefaultSessionTimeoutMinutes int
	// ExposeVerificationCodes returns issued codes in API responses. Local development only.
	ExposeVerificationCodes bool
	MaxDocumentBytes        int64

	EmailQueueSchedule     string
	IdleSweepSchedule      string
	EmailRetentionSchedule string
	EmailRetentionDays     int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string
	Sessions          string
	UserSettings      string
	VerificationCodes string
	Events            string
	Tasks             string
	Documents         string
	Notifications     string
	Devices           string
	EmailQueue        string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:        getEnv("APP_PORT", "3000"),
		AppEnv:         getEnv("APP_ENV", "development"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:             getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			UserSettings:      getEnv("DYNAMO_TABLE_USER_SETTINGS", "user_settings"),
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Events:            getEnv("DYNAMO_TABLE_EVENTS", "events"),
			Tasks:             getEnv("DYNAMO_TABLE_TASKS", "tasks"),
			Documents:         getEnv("DYNAMO_TABLE_DOCUMENTS", "documents"),
			Notifications:     getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Devices:           getEnv("DYNAMO_TABLE_DEVICES", "devices"),
			EmailQueue:        getEnv("DYNAMO_TABLE_EMAIL_QUEUE", "email_queue"),
		},
		S3BucketName:                 getEnv("S3_BUCKET_NAME", "evently-files"),
		JWTPrivateKeyPath:            getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:             getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:                    getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		RefreshTokenExpiryDays:       getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30),
		MailProvider:                 getEnv("MAIL_PROVIDER", "smtp"),
		MailFromName:                 getEnv("MAIL_FROM_NAME", "Evently"),
		SMTPHost:                     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:                     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:                     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername:                 getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                 getEnv("SMTP_PASSWORD", ""),
		SendgridAPIKey:               getEnv("SENDGRID_API_KEY", ""),
		SendgridSandbox:              getEnvBool("SENDGRID_SANDBOX", false),
		SNSRegion:                    getEnv("SNS_REGION", "us-east-1"),
		SNSPlatformApplicationARN:    getEnv("SNS_PLATFORM_APPLICATION_ARN", ""),
		DefaultSessionTimeoutMinutes: getEnvInt("DEFAULT_SESSION_TIMEOUT_MINUTES", 30),
		ExposeVerificationCodes:      getEnvBool("EXPOSE_VERIFICATION_CODES", false),
		MaxDocumentBytes:             int64(getEnvInt("MAX_DOCUMENT_BYTES", 10<<20)),
		EmailQueueSchedule:           getEnv("EMAIL_QUEUE_SCHEDULE", "@every 30s"),
		IdleSweepSchedule:            getEnv("IDLE_SWEEP_SCHEDULE", "@every 1m"),
		EmailRetentionSchedule:       getEnv("EMAIL_RETENTION_SCHEDULE", "0 3 * * *"),
		EmailRetentionDays:           getEnvInt("EMAIL_RETENTION_DAYS", 7),
		AllowedOrigins:               strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// RefreshTokenTTL is the lifetime of a refresh token.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenExpiryDays) * 24 * time.Hour
}

// DefaultSessionTimeout is the idle timeout applied before a user saves settings.
func (c *Config) DefaultSessionTimeout() time.Duration {
	return time.Duration(c.DefaultSessionTimeoutMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
