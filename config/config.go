package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Revision  RevisionConfig  `mapstructure:"revision"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	InternalAPIKey string        `mapstructure:"internal_api_key"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the shared cache connection
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// RateLimitConfig holds rate limiting configuration for the internal API
type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	Burst             int `mapstructure:"burst"`
}

// StorageConfig holds storage configuration for archived configuration documents
type StorageConfig struct {
	Type     string `mapstructure:"type"`
	BasePath string `mapstructure:"base_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// PricingConfig holds the pricing engine bounds
type PricingConfig struct {
	MaxKm                int    `mapstructure:"max_km"`
	MinYear              int    `mapstructure:"min_year"`
	DefaultMonth         int    `mapstructure:"default_month"`
	AggregateConcurrency int    `mapstructure:"aggregate_concurrency"`
	ExcludedPace         string `mapstructure:"excluded_pace"`
	MarginConfigKey      string `mapstructure:"margin_config_key"`
	RolesConfigKey       string `mapstructure:"roles_config_key"`
}

// InventoryConfig holds the live inventory sheet and cache settings
type InventoryConfig struct {
	Source          string        `mapstructure:"source"` // sheets | file
	SnapshotStore   string        `mapstructure:"snapshot_store"`
	CacheKey        string        `mapstructure:"cache_key"`
	CacheTimeKey    string        `mapstructure:"cache_time_key"`
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	SpreadsheetID   string        `mapstructure:"spreadsheet_id"`
	SheetRange      string        `mapstructure:"sheet_range"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	FilePath        string        `mapstructure:"file_path"`
}

// RevisionConfig holds the price revision sweeper settings
type RevisionConfig struct {
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
	StaleListingDays   int           `mapstructure:"stale_listing_days"`
	AlertPeriodDays    int           `mapstructure:"alert_period_days"`
	MinPriceDifference int64         `mapstructure:"min_price_difference"`
	EnableSweeper      bool          `mapstructure:"enable_sweeper"`
}

// AlertsConfig holds revision alert delivery settings
type AlertsConfig struct {
	Channel    string   `mapstructure:"channel"` // log | ses | sns
	Region     string   `mapstructure:"region"`
	Sender     string   `mapstructure:"sender"`
	Recipients []string `mapstructure:"recipients"`
	TopicARN   string   `mapstructure:"topic_arn"`
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("PRICING_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found. Variables already present in
// the environment are not overridden.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		return godotenv.Load(envFile)
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds conventional environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.internal_api_key", "INTERNAL_API_KEY")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("storage.base_path", "STORAGE_PATH")

	v.BindEnv("inventory.spreadsheet_id", "LIVE_INVENTORY_SHEET_ID")
	v.BindEnv("inventory.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS")

	v.BindEnv("alerts.region", "AWS_REGION")
	v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_path", "./data/documents")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("pricing.max_km", 65000)
	v.SetDefault("pricing.min_year", 2015)
	v.SetDefault("pricing.default_month", 1)
	v.SetDefault("pricing.aggregate_concurrency", 4)
	v.SetDefault("pricing.excluded_pace", "EXTREMELY SLOW")
	v.SetDefault("pricing.margin_config_key", "VUTTO_MARGINS")
	v.SetDefault("pricing.roles_config_key", "CALCULATOR_ROLES")

	v.SetDefault("inventory.source", "sheets")
	v.SetDefault("inventory.snapshot_store", "postgres")
	v.SetDefault("inventory.cache_key", "LIVE_INVENTORY_CACHE")
	v.SetDefault("inventory.cache_time_key", "LIVE_INVENTORY_CACHE_TIME")
	v.SetDefault("inventory.default_ttl", 5*time.Minute)
	v.SetDefault("inventory.sheet_range", "Live_Inventory")

	v.SetDefault("revision.sweep_interval", 24*time.Hour)
	v.SetDefault("revision.stale_listing_days", 30)
	v.SetDefault("revision.alert_period_days", 7)
	v.SetDefault("revision.min_price_difference", 250)
	v.SetDefault("revision.enable_sweeper", false)

	v.SetDefault("alerts.channel", "log")
	v.SetDefault("alerts.region", "ap-south-1")

	v.SetDefault("telemetry.service_name", "pricing-service")
}

// ErrInvalidConfig reports a configuration value that cannot be used.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// Validate checks the settings that select an implementation.
func (c *Config) Validate() error {
	switch c.Inventory.Source {
	case "sheets", "file":
	default:
		return ErrInvalidConfig{Field: "inventory.source", Reason: "must be sheets or file"}
	}
	if c.Inventory.Source == "file" && c.Inventory.FilePath == "" {
		return ErrInvalidConfig{Field: "inventory.file_path", Reason: "required for the file source"}
	}
	switch c.Inventory.SnapshotStore {
	case "postgres", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return ErrInvalidConfig{Field: "redis.url", Reason: "required for the redis snapshot store"}
		}
	default:
		return ErrInvalidConfig{Field: "inventory.snapshot_store", Reason: "must be postgres, redis or memory"}
	}
	switch c.Alerts.Channel {
	case "log", "ses", "sns":
	default:
		return ErrInvalidConfig{Field: "alerts.channel", Reason: "must be log, ses or sns"}
	}
	if c.Revision.EnableSweeper && c.Revision.SweepInterval <= 0 {
		return ErrInvalidConfig{Field: "revision.sweep_interval", Reason: "must be positive"}
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return ErrInvalidConfig{Field: "rate_limit", Reason: "requests_per_second and burst must be positive"}
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
