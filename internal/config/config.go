// Package config reads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

const (
	BackendFile     = "file"
	BackendBigQuery = "bigquery"
)

// Config holds every setting the binaries use.
type Config struct {
	Port           int      `json:"port" validate:"min=1,max=65535"`
	DataDir        string   `json:"data_dir" validate:"required"`
	LogDir         string   `json:"log_dir"`
	Debug          bool     `json:"debug"`
	LogLevel       string   `json:"log_level" validate:"omitempty,oneof=trace debug info warn error"`
	AllowedOrigins []string `json:"allowed_origins"`

	StorageBucket   string `json:"storage_bucket"`
	StoragePrefix   string `json:"storage_prefix"`
	TableBackend    string `json:"table_backend" validate:"oneof=file bigquery"`
	BigQueryProject string `json:"bigquery_project" validate:"required_if=TableBackend bigquery"`
	BigQueryDataset string `json:"bigquery_dataset"`
	BigQueryTable   string `json:"bigquery_table"`
	CredentialsFile string `json:"google_credentials_file"`

	SMTPHost          string `json:"smtp_host"`
	SMTPPort          int    `json:"smtp_port" validate:"min=1,max=65535"`
	SMTPUser          string `json:"smtp_user"`
	SMTPPassword      string `json:"-"`
	InquiryRecipient  string `json:"inquiry_recipient" validate:"omitempty,email"`
	InquiryWebhookURL string `json:"inquiry_webhook_url" validate:"omitempty,url"`

	SentryDSN         string `json:"-"`
	SentryEnvironment string `json:"sentry_environment"`
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "config.Load: reading .env")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a validated Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	port, err := envInt(env, "PORT", 8080)
	if err != nil {
		return Config{}, err
	}
	smtpPort, err := envInt(env, "SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	debug, err := envBool(env, "DEBUG")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:           port,
		DataDir:        env("DATA_DIR", "./data"),
		LogDir:         env("LOG_DIR", "./logs"),
		Debug:          debug,
		LogLevel:       strings.ToLower(env("LOG_LEVEL", "")),
		AllowedOrigins: splitList(env("ALLOWED_ORIGINS", "*")),

		StorageBucket:   env("STORAGE_BUCKET", ""),
		StoragePrefix:   env("STORAGE_PREFIX", ""),
		TableBackend:    strings.ToLower(env("TABLE_BACKEND", BackendFile)),
		BigQueryProject: env("BIGQUERY_PROJECT", ""),
		BigQueryDataset: env("BIGQUERY_DATASET", "finance"),
		BigQueryTable:   env("BIGQUERY_TABLE", "transactions"),
		CredentialsFile: env("GOOGLE_CREDENTIALS_FILE", ""),

		SMTPHost:          env("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          smtpPort,
		SMTPUser:          env("SMTP_USER", ""),
		SMTPPassword:      env("SMTP_PASSWORD", ""),
		InquiryRecipient:  env("INQUIRY_RECIPIENT", ""),
		InquiryWebhookURL: env("INQUIRY_WEBHOOK_URL", ""),

		SentryDSN:         env("SENTRY_DSN", ""),
		SentryEnvironment: env("SENTRY_ENVIRONMENT", "development"),
	}

	if err := domain.Validate(cfg); err != nil {
		return Config{}, errors.Wrap(err, "config.FromEnv")
	}
	return cfg, nil
}

// UseGCS reports whether blobs live in a Cloud Storage bucket.
func (c Config) UseGCS() bool {
	return c.StorageBucket != ""
}

// UseBigQuery reports whether the transaction table lives in BigQuery.
func (c Config) UseBigQuery() bool {
	return c.TableBackend == BackendBigQuery
}

func envInt(env func(string, string) string, key string, def int) (int, error) {
	raw := env(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Message: "must be an integer", Err: err}
	}
	return v, nil
}

func envBool(env func(string, string) string, key string) (bool, error) {
	raw := env(key, "")
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &domain.ValidationError{Field: key, Message: "must be a boolean", Err: err}
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
