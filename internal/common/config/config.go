// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig                `mapstructure:"app"`
	Server       ServerConfig             `mapstructure:"server"`
	Database     DatabaseConfig           `mapstructure:"database"`
	Cache        CacheConfig              `mapstructure:"cache"`
	Messaging    MessagingConfig          `mapstructure:"messaging"`
	Handlers     map[string]HandlerConfig `mapstructure:"handlers"`
	Auth         AuthConfig               `mapstructure:"auth"`
	Integrations IntegrationConfig        `mapstructure:"integrations"`
	Sitemap      SitemapConfig            `mapstructure:"sitemap"`
	Logging      LoggingConfig            `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int `mapstructure:"port"`
	ReadTimeout     int `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int `mapstructure:"write_timeout"`    // milliseconds
	RequestTimeout  int `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	URL          string   `mapstructure:"url"`
	ListingIndex string   `mapstructure:"listing_index"`
	MaxRetries   int      `mapstructure:"max_retries"`
}

// GetAddresses returns Addresses, or URL as a single address.
func (e ElasticsearchConfig) GetAddresses() []string {
	if len(e.Addresses) > 0 {
		return e.Addresses
	}
	if e.URL != "" {
		return []string{e.URL}
	}
	return nil
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// CacheConfig drives the two-tier listing and lookup caches.
type CacheConfig struct {
	KeyPrefix    string `mapstructure:"key_prefix"`
	LocalMaxSize int64  `mapstructure:"local_max_size"`
	LocalTTL     int    `mapstructure:"local_ttl"`  // milliseconds
	RemoteTTL    int    `mapstructure:"remote_ttl"` // milliseconds
}

// MessagingConfig selects where listing events are published.
// Driver is one of "rabbitmq", "sns" or "none".
type MessagingConfig struct {
	Driver   string `mapstructure:"driver"`
	RabbitMQ struct {
		URL        string `mapstructure:"url"`
		Exchange   string `mapstructure:"exchange"`
		Queue      string `mapstructure:"queue"`
		RoutingKey string `mapstructure:"routing_key"`
		Prefetch   int    `mapstructure:"prefetch"`
	} `mapstructure:"rabbitmq"`
	SNS struct {
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	ConsumeInProcess bool `mapstructure:"consume_in_process"`
}

const (
	MessagingDriverRabbitMQ = "rabbitmq"
	MessagingDriverSNS      = "sns"
	MessagingDriverNone     = "none"
)

// HandlerConfig holds the core settings applicable to every handler.
type HandlerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // milliseconds
}

// AuthConfig holds the settings used to verify bearer tokens.
type AuthConfig struct {
	JWT struct {
		Secret   string `mapstructure:"secret"`
		Issuer   string `mapstructure:"issuer"`
		Audience string `mapstructure:"audience"`
	} `mapstructure:"jwt"`
}

// IntegrationConfig holds settings for AWS email and SMS.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type SitemapConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
