package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	OutputDir string

	CRMContactsURL          string `validate:"required,url"`
	CRMAPIKey               string
	CRMTimeoutMs            int `validate:"min=1"`
	CRMMaxRetries           int `validate:"min=0"`
	CRMDefaultRetryAfterSec int `validate:"min=0"`
	CRMRateLimitRPS         int `validate:"min=0"`

	DeliveryBatchSize int `validate:"min=1"`
	DeliveryPauseSec  int `validate:"min=0"`

	HTTPAddr    string `validate:"required"`
	MaxUploadMB int    `validate:"min=1"`

	InboxDir          string
	InboxIntervalSec  int    `validate:"min=1"`
	InboxExportFormat string `validate:"oneof=csv xlsx"`
	InboxAutoDeliver  bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=console json"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		CRMContactsURL:          getEnv("CRM_CONTACTS_URL", "https://rest.gohighlevel.com/v1/contacts/"),
		CRMAPIKey:               getEnv("GOHIGHLEVEL_API_KEY", getEnv("CRM_API_KEY", "")),
		CRMTimeoutMs:            getEnvInt("CRM_TIMEOUT_MS", 30000),
		CRMMaxRetries:           getEnvInt("CRM_MAX_RETRIES", 3),
		CRMDefaultRetryAfterSec: getEnvInt("CRM_DEFAULT_RETRY_AFTER_SEC", 10),
		CRMRateLimitRPS:         getEnvInt("CRM_RATE_LIMIT_RPS", 0),

		DeliveryBatchSize: getEnvInt("DELIVERY_BATCH_SIZE", 100),
		DeliveryPauseSec:  getEnvInt("DELIVERY_PAUSE_SEC", 10),

		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 32),

		InboxDir:          getEnv("INBOX_DIR", filepath.Join(cwd, "inbox")),
		InboxIntervalSec:  getEnvInt("INBOX_INTERVAL_SEC", 60),
		InboxExportFormat: strings.ToLower(getEnv("INBOX_EXPORT_FORMAT", "csv")),
		InboxAutoDeliver:  getEnvBool("INBOX_AUTO_DELIVER", false),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func (c Config) CRMTimeout() time.Duration {
	return time.Duration(c.CRMTimeoutMs) * time.Millisecond
}

func (c Config) DefaultRetryAfter() time.Duration {
	return time.Duration(c.CRMDefaultRetryAfterSec) * time.Second
}

func (c Config) DeliveryPause() time.Duration {
	return time.Duration(c.DeliveryPauseSec) * time.Second
}

func (c Config) InboxInterval() time.Duration {
	return time.Duration(c.InboxIntervalSec) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
