package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	DualStore    bool          `envconfig:"CATALOG_DUAL_STORE" default:"true"` // list reads go to Redis when set
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"3s"`
	HttpServer   ServerConfig
	GrpcServer   GrpcServerConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Events       EventsConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// PostgresConfig holds PostgreSQL database connection details.
type PostgresConfig struct {
	Host            string        `envconfig:"POSTGRES_HOST" required:"true"`
	Port            string        `envconfig:"POSTGRES_PORT" default:"5432"`
	User            string        `envconfig:"POSTGRES_USER" required:"true"`
	Password        string        `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName          string        `envconfig:"POSTGRES_DBNAME" required:"true"`
	SSLMode         string        `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	MaxOpenConns    int           `envconfig:"POSTGRES_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"POSTGRES_MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"POSTGRES_CONN_MAX_LIFETIME" default:"5m"`
	BootstrapSchema bool          `envconfig:"POSTGRES_BOOTSTRAP_SCHEMA" default:"true"`
}

// DSN constructs the Data Source Name string for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName, pc.SSLMode)
}

// RedisConfig addresses the Redis instance backing the read store and the
// change event channel.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type EventsConfig struct {
	Channel   string `envconfig:"EVENTS_CHANNEL" default:"products_changes"`
	QueueSize int    `envconfig:"EVENTS_QUEUE_SIZE" default:"256"`
}

// Load reads the configuration from environment variables. main calls it
// once and passes the result down.
func Load() (*Config, error) {
	log.Println("Loading service configuration...")
	var loaded Config
	if err := envconfig.Process("", &loaded); err != nil { // empty prefix, variables are read as named
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := loaded.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Printf("Configuration loaded successfully for APP_ENV: %s", loaded.AppEnv)
	// Never log Postgres.DSN(), it carries the password.
	return &loaded, nil
}

func (c *Config) validate() error {
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive, got %s", c.StoreTimeout)
	}
	if c.Events.QueueSize < 1 {
		return fmt.Errorf("EVENTS_QUEUE_SIZE must be at least 1, got %d", c.Events.QueueSize)
	}
	if c.Events.Channel == "" {
		return fmt.Errorf("EVENTS_CHANNEL must not be empty")
	}
	return nil
}
