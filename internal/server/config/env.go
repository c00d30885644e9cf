package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration from environment variables. cmd/server
// loads a .env file first, so these work both in containers and local dev.
//
// Recognized variables:
//
//	ADDRESS, ENVIRONMENT, SECRET_KEY, AUTH_TOKEN_VALIDITY,
//	STORE_PATH, DATABASE_DSN,
//	API_PROVIDER_ENABLED, API_PROVIDER, SUPABASE_URL, SUPABASE_ANON_KEY,
//	CUSTOM_API_URL, CUSTOM_API_KEY, SHARE_URL_BASE, INSECURE_MOCK_AUTH,
//	SECURITY_WEBHOOK_URL,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	AUDIT_RETENTION_DAYS
func parseEnv(config *Config) {
	setString(&config.EndpointAddrHTTP, os.Getenv("ADDRESS"))
	setString(&config.Environment, os.Getenv("ENVIRONMENT"))
	setString(&config.SecretKey, os.Getenv("SECRET_KEY"))
	if v := os.Getenv("AUTH_TOKEN_VALIDITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.AuthTokenValidityDuration = d
		}
	}
	setString(&config.StorePath, os.Getenv("STORE_PATH"))
	setString(&config.DatabaseDSN, os.Getenv("DATABASE_DSN"))
	if v := os.Getenv("API_PROVIDER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.ProviderEnabled = b
		}
	}
	setString(&config.Provider, os.Getenv("API_PROVIDER"))
	setString(&config.SupabaseURL, os.Getenv("SUPABASE_URL"))
	setString(&config.SupabaseAnonKey, os.Getenv("SUPABASE_ANON_KEY"))
	setString(&config.CustomBaseURL, os.Getenv("CUSTOM_API_URL"))
	setString(&config.CustomAPIKey, os.Getenv("CUSTOM_API_KEY"))
	setString(&config.ShareURLBase, os.Getenv("SHARE_URL_BASE"))
	if v := os.Getenv("INSECURE_MOCK_AUTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.InsecureMockAuth = b
		}
	}
	setString(&config.WebhookURL, os.Getenv("SECURITY_WEBHOOK_URL"))
	setString(&config.S3RootUser, os.Getenv("S3_ROOT_USER"))
	setString(&config.S3RootPassword, os.Getenv("S3_ROOT_PASSWORD"))
	setString(&config.S3Bucket, os.Getenv("S3_BUCKET"))
	setString(&config.S3Region, os.Getenv("S3_REGION"))
	setString(&config.S3BaseEndpoint, os.Getenv("S3_BASE_ENDPOINT"))
	if v := os.Getenv("AUDIT_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.AuditRetentionDays = n
		}
	}
}
