// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Extraction sources
const (
	SourceMockaroo  = "mockaroo"
	SourceFile      = "file"
	SourceSnowflake = "snowflake"
)

// Downstream loader modes
const (
	LoaderLambda   = "lambda"
	LoaderPostgres = "postgres"
	LoaderNone     = "none"
)

const redacted = "****"

// Config represents the application configuration
type Config struct {
	// Extraction
	Source     string
	SourceFile string
	Mockaroo   MockarooConfig

	// Staging and loading
	AWS       AWSConfig
	OutputDir string // stage to the local filesystem instead of S3 when set
	Loader    LoaderConfig

	// Database connections, loaded only when a component needs them
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	AuditEnabled bool

	// Boundary settings
	RetryAttempts     int
	RetryDelay        time.Duration
	UploadConcurrency int

	MetricsPushgatewayURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// MockarooConfig holds the data generation API settings
type MockarooConfig struct {
	URL      string
	APIKey   string
	SchemaID string
	RowCount int
	Timeout  time.Duration
}

// AWSConfig holds object storage and function invocation settings
type AWSConfig struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

// LoaderConfig selects the downstream loader
type LoaderConfig struct {
	Mode         string
	FunctionName string
}

// LoadConfig loads configuration from an optional .env file and environment variables
func LoadConfig() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv reads the environment without validating, so callers can apply
// overrides before calling Finalize
func FromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Source:     getEnv("SOURCE", SourceMockaroo),
		SourceFile: getEnv("SOURCE_FILE", ""),
		Mockaroo: MockarooConfig{
			URL:      getEnv("MOCKAROO_URL", "https://api.mockaroo.com/api"),
			APIKey:   getEnv("MOCKAROO_API_KEY", ""),
			SchemaID: getEnv("MOCKAROO_SCHEMA_ID", "0935e020"),
			RowCount: getEnvAsInt("EXTRACT_ROW_COUNT", 500),
			Timeout:  getEnvAsSeconds("EXTRACT_TIMEOUT_SECONDS", 30),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-west-1"),
			Bucket:          getEnv("S3_BUCKET_NAME", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
		OutputDir: getEnv("OUTPUT_DIR", ""),
		Loader: LoaderConfig{
			Mode:         getEnv("LOADER_MODE", LoaderLambda),
			FunctionName: getEnv("LOADER_FUNCTION_NAME", "s3-to-rds-loader"),
		},
		AuditEnabled:          getEnvAsBool("AUDIT_ENABLED", false),
		RetryAttempts:         getEnvAsInt("RETRY_ATTEMPTS", 3),
		RetryDelay:            time.Duration(getEnvAsInt("RETRY_DELAY_MS", 10000)) * time.Millisecond,
		UploadConcurrency:     getEnvAsInt("UPLOAD_CONCURRENCY", 5),
		MetricsPushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "json"),
	}

	return cfg, nil
}

// Finalize loads the database configurations the settings need and validates
func (c *Config) Finalize() error {
	if err := c.LoadDatabaseConfigs(); err != nil {
		return err
	}

	// Validate configuration
	return c.Validate()
}

// LoadDatabaseConfigs loads the database configurations the selected source,
// loader and audit settings need. Call it again after changing them.
func (c *Config) LoadDatabaseConfigs() error {
	if c.Source == SourceSnowflake && c.Snowflake == nil {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return fmt.Errorf("failed to load Snowflake configuration: %w", err)
		}
		c.Snowflake = snowConfig
	}

	if c.NeedsPostgres() && c.Postgres == nil {
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
		}
		c.Postgres = pgConfig
	}

	return nil
}

// NeedsPostgres reports whether any enabled component writes to PostgreSQL
func (c *Config) NeedsPostgres() bool {
	return c.Loader.Mode == LoaderPostgres || c.AuditEnabled
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceMockaroo:
		if c.Mockaroo.APIKey == "" {
			return errors.New("MOCKAROO_API_KEY is required for the mockaroo source")
		}
		if c.Mockaroo.RowCount <= 0 {
			return errors.New("extract row count must be positive")
		}
	case SourceFile:
		if c.SourceFile == "" {
			return errors.New("SOURCE_FILE is required for the file source")
		}
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required for the snowflake source")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	if c.OutputDir == "" && c.AWS.Bucket == "" {
		return errors.New("S3_BUCKET_NAME or OUTPUT_DIR is required")
	}

	switch c.Loader.Mode {
	case LoaderLambda:
		if c.Loader.FunctionName == "" {
			return errors.New("LOADER_FUNCTION_NAME is required for the lambda loader")
		}
	case LoaderPostgres, LoaderNone:
	default:
		return fmt.Errorf("unknown loader mode %q", c.Loader.Mode)
	}

	if c.NeedsPostgres() && c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}

	if c.UploadConcurrency <= 0 {
		return errors.New("upload concurrency must be positive")
	}

	return nil
}

// Redacted returns a copy safe to log: secrets are masked
func (c *Config) Redacted() Config {
	out := *c
	out.Mockaroo.APIKey = mask(c.Mockaroo.APIKey)
	out.AWS.AccessKeyID = mask(c.AWS.AccessKeyID)
	out.AWS.SecretAccessKey = mask(c.AWS.SecretAccessKey)
	if c.Snowflake != nil {
		sf := *c.Snowflake
		sf.Password = mask(sf.Password)
		out.Snowflake = &sf
	}
	if c.Postgres != nil {
		pg := *c.Postgres
		pg.Password = mask(pg.Password)
		out.Postgres = &pg
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := cast.ToIntE(strings.TrimSpace(getEnv(key, "")))
	if err != nil || getEnv(key, "") == "" {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := cast.ToBoolE(strings.TrimSpace(getEnv(key, "")))
	if err != nil || getEnv(key, "") == "" {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
