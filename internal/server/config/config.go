// Package config handles configuration for the dashboard server, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import "time"

// DefaultSecretKey is the development JWT secret. The server warns at
// startup when it is still in use in production.
const DefaultSecretKey = "secretKey"

// Config holds runtime settings for the creatorpay server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - Environment: "development" or "production"; production turns on the
//     Secure cookie attribute and disables the CSRF same-origin shortcut.
//   - SecretKey: HMAC secret for signing the auth-token JWT (HS256). Do not
//     use test defaults in prod.
//   - AuthTokenValidityDuration: auth-token cookie JWT lifetime.
//   - StorePath: file path for the JSON store backend; empty keeps state in
//     memory only.
//   - DatabaseDSN: PostgreSQL DSN (pgx); when set it overrides StorePath.
//   - ProviderEnabled / Provider / Supabase* / Custom*: backend provider
//     selection, mirrored into provider.Settings.
//   - ShareURLBase: base for derived payment-link share URLs.
//   - InsecureMockAuth: demo mode; the mock provider accepts any password
//     for an existing user.
//   - WebhookURL: optional security-event forwarding target.
//   - S3*: object storage settings for the audit archive.
//   - AuditRetentionDays: events older than this are dropped (and archived
//     when S3 is configured) by the periodic cleanup.
type Config struct {
	EndpointAddrHTTP          string
	Environment               string
	SecretKey                 string
	AuthTokenValidityDuration time.Duration
	StorePath                 string
	DatabaseDSN               string
	ProviderEnabled           bool
	Provider                  string
	SupabaseURL               string
	SupabaseAnonKey           string
	CustomBaseURL             string
	CustomAPIKey              string
	ShareURLBase              string
	InsecureMockAuth          bool
	WebhookURL                string
	S3RootUser                string
	S3RootPassword            string
	S3Bucket                  string
	S3Region                  string
	S3BaseEndpoint            string
	AuditRetentionDays        int
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == "production"
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.Environment = "development"
	c.SecretKey = DefaultSecretKey
	c.AuthTokenValidityDuration = 24 * time.Hour
	c.StorePath = ""
	c.DatabaseDSN = ""
	c.ProviderEnabled = false
	c.Provider = "mock"
	c.ShareURLBase = "http://localhost:8080"
	c.InsecureMockAuth = true
	c.S3Bucket = "audit"
	c.S3Region = "us-east-1"
	c.AuditRetentionDays = 30
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables, and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
