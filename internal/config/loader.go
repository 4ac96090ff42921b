package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PORTLAB_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PORTLAB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setStr(&cfg.Server.Host, "PORTLAB_SERVER_HOST")
	setInt(&cfg.Server.Port, "PORTLAB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PORTLAB_SERVER_CORS_ORIGINS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "PORTLAB_POSTGRES_DSN")
	setBool(&cfg.Postgres.RunMigrations, "PORTLAB_POSTGRES_RUN_MIGRATIONS")

	// ── ClickHouse ──
	setStr(&cfg.Clickhouse.DSN, "PORTLAB_CLICKHOUSE_DSN")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PORTLAB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PORTLAB_S3_REGION")
	setStr(&cfg.S3.Bucket, "PORTLAB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PORTLAB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PORTLAB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PORTLAB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PORTLAB_S3_FORCE_PATH_STYLE")

	// ── Portfolio ──
	setFloat64(&cfg.Portfolio.TotalCapitalDefault, "PORTLAB_PORTFOLIO_TOTAL_CAPITAL_DEFAULT")
	setStr(&cfg.Portfolio.CurrencyDefault, "PORTLAB_PORTFOLIO_CURRENCY_DEFAULT")
	setFloat64(&cfg.Portfolio.RiskFreeRate, "PORTLAB_PORTFOLIO_RISK_FREE_RATE")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "PORTLAB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
