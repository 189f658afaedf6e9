package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Config struct {
	// Snapshot storage
	StoreBackend  string `envconfig:"STORE_BACKEND" default:"file" validate:"oneof=file sqlite redis memory"`
	DataDir       string `envconfig:"DATA_DIR" default:"./data"`
	SQLiteDBPath  string `envconfig:"SQLITE_DB_PATH" default:"./data/finanzas.db"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0,max=15"`
	SnapshotKey   string `envconfig:"SNAPSHOT_KEY" default:"finance-store" validate:"required,excludesall=/\\"`
	SeedOnStart   bool   `envconfig:"SEED_ON_START" default:"true"`

	// AMQP change notifications, disabled when AMQP_URL is empty
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"finanzas"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"finance_changes"`

	// Google Sheets export, disabled when GOOGLE_SPREADSHEET_ID is empty
	GoogleSpreadsheetID          string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName              string `envconfig:"GOOGLE_SHEET_NAME" default:"Resumen"`
	GoogleUpcomingSheetName      string `envconfig:"GOOGLE_UPCOMING_SHEET_NAME" default:"Proximos"`
	GoogleServiceAccountJSON     string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile     string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleApplicationCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Worker and CLI
	ExportInterval time.Duration `envconfig:"EXPORT_INTERVAL" default:"5m"`
	WatchInterval  time.Duration `envconfig:"WATCH_INTERVAL" default:"30s"`
	ViewCacheSize  int           `envconfig:"VIEW_CACHE_SIZE" default:"128" validate:"min=1,max=10000"`
	ViewCacheTTL   time.Duration `envconfig:"VIEW_CACHE_TTL" default:"10m"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report environment variable names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})
	return v
}

// Validate checks every field and cross-field rule and reports all problems
// in a single error.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("configuration validation failed:\n- %v", err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	switch c.StoreBackend {
	case BackendFile:
		if strings.TrimSpace(c.DataDir) == "" {
			problems = append(problems, "DATA_DIR cannot be empty when using file backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLiteDBPath) == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			problems = append(problems, "REDIS_ADDR cannot be empty when using redis backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SheetsEnabled() {
		if c.GoogleSheetName == "" {
			problems = append(problems, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleUpcomingSheetName == "" {
			problems = append(problems, "Google upcoming sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleSheetName != "" && c.GoogleSheetName == c.GoogleUpcomingSheetName {
			problems = append(problems, fmt.Sprintf("GOOGLE_SHEET_NAME and GOOGLE_UPCOMING_SHEET_NAME must differ, both are '%s'", c.GoogleSheetName))
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && c.GoogleApplicationCredentials == "" {
			problems = append(problems, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets export")
		}
	}

	if c.ExportInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}
	if c.WatchInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid watch interval %v: must be at least 1 second", c.WatchInterval))
	}
	if c.ViewCacheTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid view cache TTL %v: must be at least 1 second", c.ViewCacheTTL))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether change notifications are configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "max":
		return fmt.Sprintf("invalid %s %v: must be at most %s", fe.Field(), fe.Value(), fe.Param())
	case "required":
		return fmt.Sprintf("%s cannot be empty", fe.Field())
	case "excludesall":
		return fmt.Sprintf("invalid %s '%v': must not contain any of %q", fe.Field(), fe.Value(), fe.Param())
	}
	return fmt.Sprintf("invalid %s '%v': failed %s check", fe.Field(), fe.Value(), fe.Tag())
}
