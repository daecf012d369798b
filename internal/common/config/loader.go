// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on
// top, then applies environment overrides and defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env file is optional

	return finalize(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finalize(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finalize(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known environment variables
// when the files leave them empty.
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		envKey string
	}{
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Database.Redis.Password, "REDIS_PASSWORD"},
		{&cfg.Auth.JWT.Secret, "JWT_SECRET"},
		{&cfg.Messaging.RabbitMQ.URL, "RABBITMQ_URL"},
		{&cfg.Messaging.SNS.TopicARN, "SNS_TOPIC_ARN"},
		{&cfg.Integrations.AWS.Region, "AWS_REGION"},
		{&cfg.Sitemap.BaseURL, "SITE_URL"},
	}

	for _, o := range overrides {
		if *o.target != "" {
			continue
		}
		if val := os.Getenv(o.envKey); val != "" {
			*o.target = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "huusy-marketplace"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30000
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.ListingIndex == "" {
		cfg.Database.Elasticsearch.ListingIndex = "listings"
	}
	if cfg.Database.Elasticsearch.MaxRetries == 0 {
		cfg.Database.Elasticsearch.MaxRetries = 3
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}

	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "huusy"
	}
	if cfg.Cache.LocalMaxSize == 0 {
		cfg.Cache.LocalMaxSize = 1000
	}
	if cfg.Cache.LocalTTL == 0 {
		cfg.Cache.LocalTTL = 60000
	}
	if cfg.Cache.RemoteTTL == 0 {
		cfg.Cache.RemoteTTL = 300000
	}

	if cfg.Messaging.Driver == "" {
		cfg.Messaging.Driver = MessagingDriverNone
	}
	if cfg.Messaging.RabbitMQ.Queue == "" {
		cfg.Messaging.RabbitMQ.Queue = "listing_events"
	}
	if cfg.Messaging.RabbitMQ.RoutingKey == "" {
		cfg.Messaging.RabbitMQ.RoutingKey = cfg.Messaging.RabbitMQ.Queue
	}
	if cfg.Messaging.RabbitMQ.Prefetch == 0 {
		cfg.Messaging.RabbitMQ.Prefetch = 1
	}

	if cfg.Sitemap.BaseURL == "" {
		cfg.Sitemap.BaseURL = "https://huusy.com"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, handler := range cfg.Handlers {
		if handler.Timeout == 0 {
			handler.Timeout = 30000
		}
		cfg.Handlers[key] = handler
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Auth.JWT.Secret == "" {
		return fmt.Errorf("auth.jwt.secret is required")
	}

	switch cfg.Messaging.Driver {
	case MessagingDriverNone:
	case MessagingDriverRabbitMQ:
		if cfg.Messaging.RabbitMQ.URL == "" {
			return fmt.Errorf("messaging.rabbitmq.url is required for the rabbitmq driver")
		}
	case MessagingDriverSNS:
		if cfg.Messaging.SNS.TopicARN == "" {
			return fmt.Errorf("messaging.sns.topic_arn is required for the sns driver")
		}
		if cfg.Integrations.AWS.Region == "" {
			return fmt.Errorf("integrations.aws.region is required for the sns driver")
		}
	default:
		return fmt.Errorf("unknown messaging.driver %q", cfg.Messaging.Driver)
	}

	if cfg.Integrations.AWS.SES.Enabled && cfg.Integrations.AWS.SES.FromEmail == "" {
		return fmt.Errorf("integrations.aws.ses.from_email is required when ses is enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetHandlerConfig retrieves handler-specific configuration with fallback to defaults
func GetHandlerConfig(cfg *Config, handlerName string) HandlerConfig {
	if handler, exists := cfg.Handlers[handlerName]; exists {
		return handler
	}

	return HandlerConfig{
		Enabled: true,
		Timeout: 30000,
	}
}

// IsHandlerEnabled checks if a specific handler is enabled
func IsHandlerEnabled(cfg *Config, handlerName string) bool {
	if handler, exists := cfg.Handlers[handlerName]; exists {
		return handler.Enabled
	}
	return true
}
