// Package config defines the engine configuration and provides validation
// helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PORTLAB_* environment
// variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Clickhouse ClickhouseConfig `toml:"clickhouse"`
	S3         S3Config         `toml:"s3"`
	Portfolio  PortfolioConfig  `toml:"portfolio"`
	LogLevel   string           `toml:"log_level"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// PostgresConfig holds PostgreSQL connection parameters. An empty DSN makes
// the server run on in-memory stores.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	RunMigrations bool   `toml:"run_migrations"`
}

// ClickhouseConfig holds ClickHouse connection parameters for the curve
// store. Disabled when the DSN is empty.
type ClickhouseConfig struct {
	DSN string `toml:"dsn"`
}

// S3Config holds object store parameters. Disabled when the bucket is empty,
// in which case uploads are kept in memory.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// PortfolioConfig holds the engine defaults applied when a run request
// leaves them unset.
type PortfolioConfig struct {
	TotalCapitalDefault float64 `toml:"total_capital_default"`
	CurrencyDefault     string  `toml:"currency_default"`
	RiskFreeRate        float64 `toml:"risk_free_rate"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Postgres: PostgresConfig{
			RunMigrations: true,
		},
		Portfolio: PortfolioConfig{
			TotalCapitalDefault: 100000,
			CurrencyDefault:     "USD",
			RiskFreeRate:        0,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Portfolio.TotalCapitalDefault <= 0 {
		problems = append(problems, "portfolio.total_capital_default must be positive")
	}
	if c.Portfolio.CurrencyDefault == "" {
		problems = append(problems, "portfolio.currency_default must be set")
	}
	if c.S3.Bucket != "" && c.S3.Region == "" {
		problems = append(problems, "s3.region required when s3.bucket is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
