package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Driver identifies the storage backend selected by the connection string
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is not set
var ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")

// Config holds all configuration for the POS service
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	HTTPPort int
}

// DatabaseConfig holds the connection string and startup retry policy
type DatabaseConfig struct {
	URL        string
	Retries    int
	RetryDelay time.Duration
}

// RedisConfig enables the menu listing cache when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RabbitMQConfig enables order events when URL is set
type RabbitMQConfig struct {
	URL string
}

// Load reads configuration from the environment, after loading any of the
// given dotenv files that exist. With no files, ".env" is tried.
func Load(envFiles ...string) (*Config, error) {
	loadDotEnv(envFiles...)

	cfg := &Config{
		Database: DatabaseConfig{
			URL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
	}
	if cfg.Database.URL == "" {
		return nil, ErrMissingDatabaseURL
	}

	var err error
	if cfg.Database.Retries, err = getInt("DB_CONNECT_RETRIES", 10); err != nil {
		return nil, err
	}
	if cfg.Database.Retries < 1 {
		return nil, fmt.Errorf("DB_CONNECT_RETRIES must be at least 1")
	}
	if cfg.Database.RetryDelay, err = getDuration("DB_CONNECT_RETRY_DELAY", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.Redis.DB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Redis.TTL, err = getDuration("CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPPort, err = getInt("HTTP_PORT", 8000); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Driver reports which backend the database URL points at
func (c *Config) Driver() (Driver, error) {
	return ParseDriver(c.Database.URL)
}

// ParseDriver maps a connection string to its storage backend
func ParseDriver(url string) (Driver, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", url)
	}
}

// SQLiteDSN converts a sqlite:// URL into a modernc.org/sqlite data source
// name with foreign keys enforced
func (c *Config) SQLiteDSN() string {
	return SQLiteDSN(c.Database.URL)
}

// SQLiteDSN converts a sqlite:// or file: URL into a data source name
func SQLiteDSN(url string) string {
	dsn := url
	if strings.HasPrefix(dsn, "sqlite://") {
		dsn = "file:" + strings.TrimPrefix(dsn, "sqlite://")
	}
	if strings.Contains(dsn, "_pragma=foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func loadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// existing environment wins over the file
		_ = godotenv.Load(f)
	}
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return d, nil
}
