// Package config loads process configuration from the environment, with an
// optional YAML file layered underneath.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Cart      CartConfig      `yaml:"cart"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Port               string        `yaml:"port"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	HandlerTimeout     time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`
	AdminToken         string        `yaml:"admin_token"`
}

// CatalogConfig selects the catalog source. When Addr is set the engine talks
// to a remote catalog over gRPC, otherwise it opens the SQLite file directly.
type CatalogConfig struct {
	Addr                string        `yaml:"addr"`
	ListenPort          string        `yaml:"listen_port"`
	DBPath              string        `yaml:"db_path"`
	MigrationsDir       string        `yaml:"migrations_dir"`
	Timeout             time.Duration `yaml:"timeout"`
	BreakerFailures     uint32        `yaml:"breaker_failures"`
	BreakerOpenDuration time.Duration `yaml:"breaker_open_duration"`
}

// MongoConfig with an empty URI keeps user state in memory.
type MongoConfig struct {
	URI                    string        `yaml:"uri"`
	Database               string        `yaml:"database"`
	MaxPoolSize            uint64        `yaml:"max_pool_size"`
	MinPoolSize            uint64        `yaml:"min_pool_size"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`
}

// PostgresConfig with an empty Host keeps orders in memory.
type PostgresConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	DBName        string `yaml:"db_name"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type CartConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	CallTimeout time.Duration `yaml:"call_timeout"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:               "8080",
			RequestTimeout:     30 * time.Second,
			HandlerTimeout:     10 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			MaxRequestBodySize: 1 << 20, // 1MB
		},
		Catalog: CatalogConfig{
			ListenPort:          "50051",
			DBPath:              "./data/catalog.db",
			MigrationsDir:       "internal/catalog/migrations",
			Timeout:             2 * time.Second,
			BreakerFailures:     5,
			BreakerOpenDuration: 10 * time.Second,
		},
		Mongo: MongoConfig{
			Database:               "hopyfy",
			MaxPoolSize:            100,
			MinPoolSize:            10,
			ConnectTimeout:         10 * time.Second,
			ServerSelectionTimeout: 5 * time.Second,
		},
		Postgres: PostgresConfig{
			Port:          5432,
			User:          "postgres",
			DBName:        "orders",
			MigrationsDir: "internal/orders/migrations",
		},
		Redis: RedisConfig{TTL: 15 * time.Minute},
		Kafka: KafkaConfig{
			Topic:   "hopyfy-orders",
			GroupID: "hopyfy-cart-repair",
		},
		Cart: CartConfig{
			MaxAttempts: 3,
			CallTimeout: 3 * time.Second,
		},
		Log:       LogConfig{Mode: "production", Level: "info"},
		Telemetry: TelemetryConfig{ServiceName: "hopyfy-cart"},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTP.Port = getEnv("HTTP_PORT", c.HTTP.Port)
	c.HTTP.AdminToken = getEnv("ADMIN_TOKEN", c.HTTP.AdminToken)

	c.Catalog.Addr = getEnv("CATALOG_ADDR", c.Catalog.Addr)
	c.Catalog.ListenPort = getEnv("CATALOG_PORT", c.Catalog.ListenPort)
	c.Catalog.DBPath = getEnv("CATALOG_DB_PATH", c.Catalog.DBPath)
	c.Catalog.MigrationsDir = getEnv("CATALOG_MIGRATIONS_DIR", c.Catalog.MigrationsDir)

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DB_NAME", c.Mongo.Database)

	c.Postgres.Host = getEnv("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.User = getEnv("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.DBName = getEnv("POSTGRES_DB", c.Postgres.DBName)
	c.Postgres.MigrationsDir = getEnv("POSTGRES_MIGRATIONS_DIR", c.Postgres.MigrationsDir)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Log.Mode = getEnv("LOG_MODE", c.Log.Mode)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", c.Telemetry.ServiceName)

	var err error
	if c.Postgres.Port, err = getEnvInt("POSTGRES_PORT", c.Postgres.Port); err != nil {
		return err
	}
	if c.Mongo.MaxPoolSize, err = getEnvUint("MONGO_MAX_POOL_SIZE", c.Mongo.MaxPoolSize); err != nil {
		return err
	}
	if c.Mongo.MinPoolSize, err = getEnvUint("MONGO_MIN_POOL_SIZE", c.Mongo.MinPoolSize); err != nil {
		return err
	}
	if c.Mongo.ConnectTimeout, err = getEnvDuration("MONGO_CONNECT_TIMEOUT", c.Mongo.ConnectTimeout); err != nil {
		return err
	}
	if c.Mongo.ServerSelectionTimeout, err = getEnvDuration("MONGO_SERVER_SELECTION_TIMEOUT", c.Mongo.ServerSelectionTimeout); err != nil {
		return err
	}
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Cart.MaxAttempts, err = getEnvInt("CART_MAX_ATTEMPTS", c.Cart.MaxAttempts); err != nil {
		return err
	}
	if c.HTTP.RequestTimeout, err = getEnvDuration("HTTP_REQUEST_TIMEOUT", c.HTTP.RequestTimeout); err != nil {
		return err
	}
	if c.Catalog.Timeout, err = getEnvDuration("CATALOG_TIMEOUT", c.Catalog.Timeout); err != nil {
		return err
	}
	if c.Redis.TTL, err = getEnvDuration("REDIS_TTL", c.Redis.TTL); err != nil {
		return err
	}
	if c.Cart.CallTimeout, err = getEnvDuration("CART_CALL_TIMEOUT", c.Cart.CallTimeout); err != nil {
		return err
	}
	if c.Telemetry.Enabled, err = getEnvBool("OTEL_ENABLED", c.Telemetry.Enabled); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Cart.MaxAttempts < 1 {
		return fmt.Errorf("cart.max_attempts must be at least 1, got %d", c.Cart.MaxAttempts)
	}
	if c.HTTP.HandlerTimeout <= 0 || c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	if c.HTTP.HandlerTimeout > c.HTTP.RequestTimeout {
		return fmt.Errorf("http.handler_timeout (%s) exceeds http.request_timeout (%s)", c.HTTP.HandlerTimeout, c.HTTP.RequestTimeout)
	}
	if c.Mongo.MinPoolSize > c.Mongo.MaxPoolSize {
		return fmt.Errorf("mongo.min_pool_size (%d) exceeds mongo.max_pool_size (%d)", c.Mongo.MinPoolSize, c.Mongo.MaxPoolSize)
	}
	if c.Catalog.Addr == "" && c.Catalog.DBPath == "" {
		return fmt.Errorf("either catalog.addr or catalog.db_path is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
