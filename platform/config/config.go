// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// RedisConfig provides Redis connection settings for the task queue.
type RedisConfig interface {
	GetRedisURL() string
}

// JWTConfig provides JWT validation settings for the ops middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketQuoteDocuments() string
	IsMinIOEnabled() bool
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// SMSConfig provides settings for the SMS gateway.
type SMSConfig interface {
	GetSMSGatewayURL() string
	GetSMSGatewayAPIKey() string
	GetSMSFromNumber() string
	IsSMSEnabled() bool
}

// AgentConfig provides settings for the quote-reading agent.
type AgentConfig interface {
	GetMoonshotAPIKey() string
	IsAgentEnabled() bool
}

// CRMConfig provides settings for conversion forwarding.
type CRMConfig interface {
	GetCRMWebhookURL() string
	GetCRMWebhookSecret() string
	IsCRMEnabled() bool
}

// FunnelConfig provides settings for building public funnel links.
type FunnelConfig interface {
	GetAppBaseURL() string
}

// VerificationConfig provides settings for one-time code verification.
type VerificationConfig interface {
	GetVerificationCodeTTL() time.Duration
	GetVerificationMaxAttempts() int
}

// WorkerConfig provides settings for background processing.
type WorkerConfig interface {
	GetScanStuckAfter() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	RedisURL                  string
	JWTAccessSecret           string
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	AppBaseURL                string
	EmailEnabled              bool
	SMTPHost                  string
	SMTPPort                  int
	SMTPUsername              string
	SMTPPassword              string
	EmailFromName             string
	EmailFromAddress          string
	SMSGatewayURL             string
	SMSGatewayAPIKey          string
	SMSFromNumber             string
	MoonshotAPIKey            string
	CRMWebhookURL             string
	CRMWebhookSecret          string
	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinIOMaxFileSize          int64
	MinioBucketQuoteDocuments string
	VerificationCodeTTL       time.Duration
	VerificationMaxAttempts   int
	ScanStuckAfter            time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketQuoteDocuments() string {
	return c.MinioBucketQuoteDocuments
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// SMSConfig implementation
func (c *Config) GetSMSGatewayURL() string    { return c.SMSGatewayURL }
func (c *Config) GetSMSGatewayAPIKey() string { return c.SMSGatewayAPIKey }
func (c *Config) GetSMSFromNumber() string    { return c.SMSFromNumber }
func (c *Config) IsSMSEnabled() bool          { return c.SMSGatewayURL != "" }

// AgentConfig implementation
func (c *Config) GetMoonshotAPIKey() string { return c.MoonshotAPIKey }
func (c *Config) IsAgentEnabled() bool      { return c.MoonshotAPIKey != "" }

// CRMConfig implementation
func (c *Config) GetCRMWebhookURL() string    { return c.CRMWebhookURL }
func (c *Config) GetCRMWebhookSecret() string { return c.CRMWebhookSecret }
func (c *Config) IsCRMEnabled() bool          { return c.CRMWebhookURL != "" }

// FunnelConfig implementation
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// VerificationConfig implementation
func (c *Config) GetVerificationCodeTTL() time.Duration { return c.VerificationCodeTTL }
func (c *Config) GetVerificationMaxAttempts() int       { return c.VerificationMaxAttempts }

// WorkerConfig implementation
func (c *Config) GetScanStuckAfter() time.Duration { return c.ScanStuckAfter }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		RedisURL:                  getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:                getEnv("APP_BASE_URL", "http://localhost:4200"),
		EmailEnabled:              emailEnabled && smtpHost != "",
		SMTPHost:                  smtpHost,
		SMTPPort:                  int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:              getEnv("SMTP_USERNAME", ""),
		SMTPPassword:              getEnv("SMTP_PASSWORD", ""),
		EmailFromName:             getEnv("EMAIL_FROM_NAME", "Quote Scanner"),
		EmailFromAddress:          getEnv("EMAIL_FROM_ADDRESS", ""),
		SMSGatewayURL:             getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayAPIKey:          getEnv("SMS_GATEWAY_API_KEY", ""),
		SMSFromNumber:             getEnv("SMS_FROM_NUMBER", ""),
		MoonshotAPIKey:            getEnv("MOONSHOT_API_KEY", ""),
		CRMWebhookURL:             getEnv("CRM_WEBHOOK_URL", ""),
		CRMWebhookSecret:          getEnv("CRM_WEBHOOK_SECRET", ""),
		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:          mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketQuoteDocuments: getEnv("MINIO_BUCKET_QUOTE_DOCUMENTS", "quote-documents"),
		VerificationCodeTTL:       mustDuration(getEnv("VERIFICATION_CODE_TTL", "10m")),
		VerificationMaxAttempts:   int(mustInt64(getEnv("VERIFICATION_MAX_ATTEMPTS", "5"))),
		ScanStuckAfter:            mustDuration(getEnv("SCAN_STUCK_AFTER", "15m")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if emailEnabled && smtpHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.SMSGatewayURL != "" && cfg.SMSGatewayAPIKey == "" {
		return nil, fmt.Errorf("SMS_GATEWAY_API_KEY is required when SMS_GATEWAY_URL is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.VerificationCodeTTL <= 0 {
		return nil, fmt.Errorf("VERIFICATION_CODE_TTL must be a positive duration")
	}
	if cfg.VerificationMaxAttempts <= 0 {
		return nil, fmt.Errorf("VERIFICATION_MAX_ATTEMPTS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
