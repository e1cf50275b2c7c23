package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	ServerAddr         string   `env:"SERVER_ADDR"`
	Port               string   `env:"PORT" envDefault:"8080"`
	DBDriver           string   `env:"DB_DRIVER" envDefault:"mysql"`
	MysqlDSN           string   `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/friends?charset=utf8mb4&parseTime=True&loc=Local"`
	SQLitePath         string   `env:"SQLITE_PATH" envDefault:"./friends.db"`
	JWTSecret          string   `env:"JWT_SECRET" envDefault:"friends-secret-key-change-in-production"`
	InternalToken      string   `env:"INTERNAL_TOKEN"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	ProvisionBatchSize int      `env:"FRIENDS_PROVISION_BATCH_SIZE" envDefault:"500"`
}

var Cfg *Config

// Load reads an optional .env file and then the process environment.
func Load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := Parse()
	if err != nil {
		return err
	}
	Cfg = cfg
	return nil
}

// Parse builds a Config from the environment without touching Cfg.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = ":" + cfg.Port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.ProvisionBatchSize < 1 {
		return fmt.Errorf("FRIENDS_PROVISION_BATCH_SIZE must be > 0, got %d", c.ProvisionBatchSize)
	}
	return nil
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == DriverSQLite {
		return c.SQLitePath
	}
	return c.MysqlDSN
}
