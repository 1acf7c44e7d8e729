package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads configuration in three layers: built-in defaults, an optional
// TOML file, and KALSHI15M_* environment variable overrides. A .env file in
// the working directory is loaded first if present so container and local
// runs behave the same.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Ignore the error: a missing .env file is normal.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides mutates cfg from KALSHI15M_* environment variables. Only
// variables that are set and non-empty take effect.
func applyEnvOverrides(cfg *Config) {
	// Top level
	setStr(&cfg.Mode, "KALSHI15M_MODE")
	setBool(&cfg.DryRun, "KALSHI15M_DRY_RUN")
	setStr(&cfg.LogLevel, "KALSHI15M_LOG_LEVEL")

	// Kalshi
	setStr(&cfg.Kalshi.ApiKey, "KALSHI15M_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPEM, "KALSHI15M_KALSHI_RSA_PRIVATE_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "KALSHI15M_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.BaseURL, "KALSHI15M_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiPrefix, "KALSHI15M_KALSHI_API_PREFIX")
	setStr(&cfg.Kalshi.WsURL, "KALSHI15M_KALSHI_WS_URL")
	setBool(&cfg.Kalshi.CheckExchange, "KALSHI15M_KALSHI_CHECK_EXCHANGE")

	// Policy
	setStr(&cfg.Policy.CombinedMaxPrice, "KALSHI15M_POLICY_COMBINED_MAX_PRICE")
	setInt64(&cfg.Policy.FastCloseWindowSeconds, "KALSHI15M_POLICY_FAST_CLOSE_WINDOW_SECONDS")
	setStr(&cfg.Policy.FastCloseBandLow, "KALSHI15M_POLICY_FAST_CLOSE_BAND_LOW")
	setStr(&cfg.Policy.FastCloseBandHigh, "KALSHI15M_POLICY_FAST_CLOSE_BAND_HIGH")
	setInt64(&cfg.Policy.OrderCount, "KALSHI15M_POLICY_ORDER_COUNT")
	setStr(&cfg.Policy.TimeInForce, "KALSHI15M_POLICY_TIME_IN_FORCE")

	// Discovery
	setBool(&cfg.Discovery.DiscoverEvents, "KALSHI15M_DISCOVERY_EVENTS")
	setBool(&cfg.Discovery.DiscoverSeries, "KALSHI15M_DISCOVERY_SERIES")
	setStringSlice(&cfg.Discovery.EventSeriesTickers, "KALSHI15M_DISCOVERY_EVENT_SERIES_TICKERS")
	setStringSlice(&cfg.Discovery.EventTickerPrefixes, "KALSHI15M_DISCOVERY_EVENT_TICKER_PREFIXES")
	setInt(&cfg.Discovery.EventsLimit, "KALSHI15M_DISCOVERY_EVENTS_LIMIT")
	setInt64(&cfg.Discovery.MinCloseTS, "KALSHI15M_DISCOVERY_MIN_CLOSE_TS")
	setStr(&cfg.Discovery.SeriesCategory, "KALSHI15M_DISCOVERY_SERIES_CATEGORY")
	setStr(&cfg.Discovery.SeriesFrequency, "KALSHI15M_DISCOVERY_SERIES_FREQUENCY")
	setStringSlice(&cfg.Discovery.CryptoAssets, "KALSHI15M_DISCOVERY_CRYPTO_ASSETS")
	setBool(&cfg.Discovery.CryptoOnly, "KALSHI15M_DISCOVERY_CRYPTO_ONLY")
	setBool(&cfg.Discovery.BTCOnly, "KALSHI15M_DISCOVERY_BTC_ONLY")
	setStr(&cfg.Discovery.IntervalRegex, "KALSHI15M_DISCOVERY_INTERVAL_REGEX")

	// RefPrice
	setBool(&cfg.RefPrice.Enabled, "KALSHI15M_REFPRICE_ENABLED")
	setInt(&cfg.RefPrice.MinSources, "KALSHI15M_REFPRICE_MIN_SOURCES")
	setStringSlice(&cfg.RefPrice.Assets, "KALSHI15M_REFPRICE_ASSETS")

	// Notify
	setStr(&cfg.Notify.SlackWebhookURL, "KALSHI15M_NOTIFY_SLACK_WEBHOOK_URL")
	setStr(&cfg.Notify.TelegramToken, "KALSHI15M_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "KALSHI15M_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "KALSHI15M_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "KALSHI15M_NOTIFY_EVENTS")

	// Postgres
	setBool(&cfg.Postgres.Enabled, "KALSHI15M_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "KALSHI15M_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "KALSHI15M_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "KALSHI15M_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "KALSHI15M_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "KALSHI15M_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "KALSHI15M_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "KALSHI15M_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "KALSHI15M_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "KALSHI15M_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "KALSHI15M_POSTGRES_RUN_MIGRATIONS")

	// Redis
	setBool(&cfg.Redis.Enabled, "KALSHI15M_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "KALSHI15M_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "KALSHI15M_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "KALSHI15M_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "KALSHI15M_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "KALSHI15M_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "KALSHI15M_REDIS_TLS_ENABLED")

	// S3
	setBool(&cfg.S3.Enabled, "KALSHI15M_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "KALSHI15M_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "KALSHI15M_S3_REGION")
	setStr(&cfg.S3.Bucket, "KALSHI15M_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "KALSHI15M_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "KALSHI15M_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "KALSHI15M_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "KALSHI15M_S3_FORCE_PATH_STYLE")
}

// --- typed setters ---------------------------------------------------------

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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
