package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source types
const (
	SourceGophish  = "gophish"
	SourceSnapshot = "snapshot"
)

// Snapshot storage types
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Gophish  GophishConfig  `yaml:"gophish"`
	Source   SourceConfig   `yaml:"source"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Cache    CacheConfig    `yaml:"cache"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	CORSOrigins []string `yaml:"cors_origins"`
	// RefreshPerMinute caps POST /api/refresh; 0 disables the limit.
	RefreshPerMinute int `yaml:"refresh_per_minute"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" {
		return "0.0.0.0"
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// GophishConfig holds the campaign backend API settings.
type GophishConfig struct {
	BaseURL            string `yaml:"base_url"`
	APIKey             string `yaml:"api_key"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // Gophish ships a self-signed admin certificate
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	MaxRetries         int    `yaml:"max_retries"`
}

// Timeout returns the request timeout as a duration
func (c GophishConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SourceConfig selects where campaign data comes from.
type SourceConfig struct {
	Type string `yaml:"type"` // "gophish" or "snapshot"
}

// SnapshotConfig holds the flat-file snapshot location.
type SnapshotConfig struct {
	Type       string `yaml:"type"` // "local" or "s3"
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
	// S3Endpoint points at an S3-compatible service (MinIO, LocalStack).
	S3Endpoint      string `yaml:"s3_endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	// SaveOnRefresh writes every fetched dataset back as a snapshot.
	SaveOnRefresh bool `yaml:"save_on_refresh"`
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c SnapshotConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// CacheConfig holds the Redis snapshot cache settings. An empty URL disables it.
type CacheConfig struct {
	RedisURL   string `yaml:"redis_url"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ArchiveConfig holds the Postgres run archive settings.
type ArchiveConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"`
}

// PipelineConfig tunes the normalization run.
type PipelineConfig struct {
	Workers int `yaml:"workers"`
	// RefreshIntervalSeconds re-runs the pipeline on a timer; 0 disables it.
	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds"`
	// ArchiveKeep bounds archived runs; 0 keeps everything.
	ArchiveKeep int `yaml:"archive_keep"`
	// RefreshTimeoutSeconds bounds one refresh run and the refresh lock.
	RefreshTimeoutSeconds int `yaml:"refresh_timeout_seconds"`
}

// RefreshTimeout returns the per-run deadline.
func (c PipelineConfig) RefreshTimeout() time.Duration {
	return time.Duration(c.RefreshTimeoutSeconds) * time.Second
}

// RefreshInterval returns the auto-refresh period.
func (c PipelineConfig) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// RedactPII masks recipient emails in log output.
	RedactPII *bool `yaml:"redact_pii"`
}

// Redact reports whether PII redaction is on. Defaults to true.
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Gophish.BaseURL == "" {
		cfg.Gophish.BaseURL = "https://127.0.0.1:3333"
	}
	if cfg.Gophish.TimeoutSeconds == 0 {
		cfg.Gophish.TimeoutSeconds = 30
	}
	if cfg.Gophish.MaxRetries == 0 {
		cfg.Gophish.MaxRetries = 3
	}
	if cfg.Source.Type == "" {
		cfg.Source.Type = SourceGophish
	}
	if cfg.Snapshot.Type == "" {
		cfg.Snapshot.Type = StorageLocal
	}
	if cfg.Snapshot.AWSRegion == "" {
		cfg.Snapshot.AWSRegion = "us-west-2"
	}
	if cfg.Snapshot.LocalPath == "" {
		cfg.Snapshot.LocalPath = "./data"
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "phish:snapshot:"
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = 4
	}
	if cfg.Pipeline.RefreshTimeoutSeconds == 0 {
		cfg.Pipeline.RefreshTimeoutSeconds = 600
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks cross-field constraints after defaults and overrides.
func (cfg *Config) Validate() error {
	switch cfg.Source.Type {
	case SourceGophish:
		if cfg.Gophish.APIKey == "" {
			return fmt.Errorf("gophish source requires an api key (GOPHISH_API_KEY)")
		}
	case SourceSnapshot:
	default:
		return fmt.Errorf("unknown source type: %q", cfg.Source.Type)
	}
	switch cfg.Snapshot.Type {
	case StorageLocal:
	case StorageS3:
		if cfg.Snapshot.S3Bucket == "" {
			return fmt.Errorf("s3 snapshot storage requires a bucket")
		}
	default:
		return fmt.Errorf("unknown snapshot storage type: %q", cfg.Snapshot.Type)
	}
	if cfg.Archive.Enabled && cfg.Archive.DatabaseURL == "" {
		return fmt.Errorf("archive enabled without database_url")
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in production.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("GOPHISH_API_KEY"); v != "" {
		cfg.Gophish.APIKey = v
	}
	if v := os.Getenv("GOPHISH_BASE_URL"); v != "" {
		cfg.Gophish.BaseURL = v
	}
	if v := os.Getenv("GOPHISH_INSECURE_SKIP_VERIFY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Gophish.InsecureSkipVerify = b
		}
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("SNAPSHOT_LOCAL_PATH"); v != "" {
		cfg.Snapshot.LocalPath = v
	}
	if v := os.Getenv("SNAPSHOT_S3_BUCKET"); v != "" {
		cfg.Snapshot.Type = StorageS3
		cfg.Snapshot.S3Bucket = v
	}
	if v := os.Getenv("SNAPSHOT_S3_REGION"); v != "" {
		cfg.Snapshot.AWSRegion = v
	}
	if v := os.Getenv("SNAPSHOT_S3_ENDPOINT"); v != "" {
		cfg.Snapshot.S3Endpoint = v
	}
	if v := os.Getenv("SNAPSHOT_ACCESS_KEY_ID"); v != "" {
		cfg.Snapshot.AccessKeyID = v
	}
	if v := os.Getenv("SNAPSHOT_SECRET_ACCESS_KEY"); v != "" {
		cfg.Snapshot.SecretAccessKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Archive.DatabaseURL = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	return cfg, nil
}
