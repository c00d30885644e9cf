package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/creatorpay/core/internal/flagx"
	"github.com/creatorpay/core/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "24h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP          string         `json:"endpoint_addr_http"`
	Environment               string         `json:"environment"`
	SecretKey                 string         `json:"secret_key"`
	AuthTokenValidityDuration timex.Duration `json:"auth_token_validity_duration"`
	StorePath                 string         `json:"store_path"`
	DatabaseDSN               string         `json:"database_dsn"`
	ProviderEnabled           *bool          `json:"provider_enabled"`
	Provider                  string         `json:"provider"`
	SupabaseURL               string         `json:"supabase_url"`
	SupabaseAnonKey           string         `json:"supabase_anon_key"`
	CustomBaseURL             string         `json:"custom_base_url"`
	CustomAPIKey              string         `json:"custom_api_key"`
	ShareURLBase              string         `json:"share_url_base"`
	InsecureMockAuth          *bool          `json:"insecure_mock_auth"`
	WebhookURL                string         `json:"webhook_url"`
	S3RootUser                string         `json:"s3_root_user"`
	S3RootPassword            string         `json:"s3_root_password"`
	S3Bucket                  string         `json:"s3_bucket"`
	S3Region                  string         `json:"s3_region"`
	S3BaseEndpoint            string         `json:"s3_base_endpoint"`
	AuditRetentionDays        int            `json:"audit_retention_days"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is the -c or -config command-line
// flag; if neither is set, no JSON file is loaded. If the file cannot be
// read or contains invalid JSON, the function panics: a requested config
// file that does not parse is a startup error, not something to limp past.
//
// String fields are only copied when non-empty so a partial JSON file keeps
// the defaults for everything it omits; boolean fields use pointers for the
// same reason.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.Environment, c.Environment)
	setString(&config.SecretKey, c.SecretKey)
	if c.AuthTokenValidityDuration.Duration != 0 {
		config.AuthTokenValidityDuration = time.Duration(c.AuthTokenValidityDuration.Duration)
	}
	setString(&config.StorePath, c.StorePath)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if c.ProviderEnabled != nil {
		config.ProviderEnabled = *c.ProviderEnabled
	}
	setString(&config.Provider, c.Provider)
	setString(&config.SupabaseURL, c.SupabaseURL)
	setString(&config.SupabaseAnonKey, c.SupabaseAnonKey)
	setString(&config.CustomBaseURL, c.CustomBaseURL)
	setString(&config.CustomAPIKey, c.CustomAPIKey)
	setString(&config.ShareURLBase, c.ShareURLBase)
	if c.InsecureMockAuth != nil {
		config.InsecureMockAuth = *c.InsecureMockAuth
	}
	setString(&config.WebhookURL, c.WebhookURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.AuditRetentionDays > 0 {
		config.AuditRetentionDays = c.AuditRetentionDays
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
