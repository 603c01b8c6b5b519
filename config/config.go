package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server   ServerConfig
	Site     SiteConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
}

type ServerConfig struct {
	Port     string `envconfig:"PORT" default:"8080"`
	Env      string `envconfig:"ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// SiteConfig describes the client-facing shell.
type SiteConfig struct {
	BaseURL string `envconfig:"PUBLIC_BASE_URL" required:"true"`
	Name    string `envconfig:"SITE_NAME" default:"SMRT"`
}

type DatabaseConfig struct {
	URL             string        `envconfig:"DATABASE_URL" required:"true"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"5m"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Brokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	TopicStore    string   `envconfig:"KAFKA_TOPIC_STORE_EVENTS" default:"storefront-events"`
	TopicPayment  string   `envconfig:"KAFKA_TOPIC_PAYMENT_EVENTS" default:"payment-events"`
	ConsumerGroup string   `envconfig:"KAFKA_CONSUMER_GROUP" default:"storefront-payments"`
}

type ObservabilityConfig struct {
	JaegerEndpoint string `envconfig:"JAEGER_ENDPOINT" default:"http://localhost:14268/api/traces"`
}

// Error reports a missing or malformed configuration value. Processes must
// not start serving when Load returns one.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the optional .env file and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{Err: err}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return &Error{Key: "DATABASE_URL", Err: fmt.Errorf("must not be empty")}
	}

	base := strings.TrimSpace(c.Site.BaseURL)
	u, err := url.Parse(base)
	if err != nil {
		return &Error{Key: "PUBLIC_BASE_URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return &Error{Key: "PUBLIC_BASE_URL", Err: fmt.Errorf("expected absolute http(s) URL, got %q", base)}
	}
	c.Site.BaseURL = strings.TrimRight(base, "/")

	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (s ServerConfig) IsProduction() bool {
	return strings.EqualFold(s.Env, "production")
}

// ToolConfig is the subset read by the seed and migrate commands, which never
// serve pages and so do not need PUBLIC_BASE_URL.
type ToolConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
}

// LoadTool reads the configuration for the command-line tools.
func LoadTool() (*ToolConfig, error) {
	_ = godotenv.Load()

	var cfg ToolConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{Err: err}
	}
	if strings.TrimSpace(cfg.Database.URL) == "" {
		return nil, &Error{Key: "DATABASE_URL", Err: fmt.Errorf("must not be empty")}
	}
	return &cfg, nil
}
