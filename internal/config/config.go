// Package config defines the top-level configuration for the kalshi15m bot
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by KALSHI15M_* environment
// variables.
type Config struct {
	Kalshi    KalshiConfig    `toml:"kalshi"`
	Policy    PolicyConfig    `toml:"policy"`
	Discovery DiscoveryConfig `toml:"discovery"`
	RefPrice  RefPriceConfig  `toml:"refprice"`
	Notify    NotifyConfig    `toml:"notify"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Mode      string          `toml:"mode"`
	DryRun    bool            `toml:"dry_run"`
	LogLevel  string          `toml:"log_level"`
}

// KalshiConfig holds Kalshi exchange API credentials and endpoints.
type KalshiConfig struct {
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPEM  string `toml:"rsa_private_key_pem"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	BaseURL           string `toml:"base_url"`
	ApiPrefix         string `toml:"api_prefix"`
	WsURL             string `toml:"ws_url"`
	// CheckExchange gates live runs on the exchange-status endpoint.
	CheckExchange bool `toml:"check_exchange"`
}

// PolicyConfig holds the qualification thresholds. Prices are decimal
// strings so thresholds compare exactly.
type PolicyConfig struct {
	CombinedMaxPrice       string `toml:"combined_max_price"`
	FastCloseWindowSeconds int64  `toml:"fast_close_window_seconds"`
	FastCloseBandLow       string `toml:"fast_close_band_low"`
	FastCloseBandHigh      string `toml:"fast_close_band_high"`
	OrderCount             int64  `toml:"order_count"`
	TimeInForce            string `toml:"time_in_force"`
}

// DiscoveryConfig holds market discovery parameters.
type DiscoveryConfig struct {
	DiscoverEvents      bool     `toml:"discover_events"`
	DiscoverSeries      bool     `toml:"discover_series"`
	EventSeriesTickers  []string `toml:"event_series_tickers"`
	EventTickerPrefixes []string `toml:"event_ticker_prefixes"`
	EventsLimit         int      `toml:"events_limit"`
	MinCloseTS          int64    `toml:"min_close_ts"`
	SeriesCategory      string   `toml:"series_category"`
	SeriesFrequency     string   `toml:"series_frequency"`
	CryptoAssets        []string `toml:"crypto_assets"`
	CryptoOnly          bool     `toml:"crypto_only"`
	BTCOnly             bool     `toml:"btc_only"`
	IntervalRegex       string   `toml:"interval_regex"`
}

// RefPriceConfig holds the CEX reference price scan parameters.
type RefPriceConfig struct {
	Enabled    bool     `toml:"enabled"`
	MinSources int      `toml:"min_sources"`
	Assets     []string `toml:"assets"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	SlackWebhookURL   string   `toml:"slack_webhook_url"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// PostgresConfig holds the optional run-audit database parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the optional reference-price cache parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds the optional run-archive object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml. Dry-run is on by default;
// live trading has to be asked for.
func Defaults() Config {
	return Config{
		Kalshi: KalshiConfig{
			BaseURL:       "https://api.elections.kalshi.com",
			ApiPrefix:     "/trade-api/v2",
			WsURL:         "wss://api.elections.kalshi.com/trade-api/ws/v2",
			CheckExchange: true,
		},
		Policy: PolicyConfig{
			CombinedMaxPrice:       "1.00",
			FastCloseWindowSeconds: 60,
			FastCloseBandLow:       "0.90",
			FastCloseBandHigh:      "0.97",
			OrderCount:             1,
			TimeInForce:            "fill_or_kill",
		},
		Discovery: DiscoveryConfig{
			DiscoverEvents:      true,
			EventSeriesTickers:  []string{"KXBTC15M", "KXETH15M", "KXSOL15M"},
			EventTickerPrefixes: []string{"KXBTC15M", "KXETH15M", "KXSOL15M"},
			EventsLimit:         200,
			SeriesCategory:      "crypto",
			SeriesFrequency:     "15m",
			CryptoAssets:        []string{"btc", "eth", "sol"},
			CryptoOnly:          true,
		},
		RefPrice: RefPriceConfig{
			Enabled:    true,
			MinSources: 2,
			Assets:     []string{"BTC", "ETH"},
		},
		Notify: NotifyConfig{
			Events: []string{"run_summary", "order_filled", "run_error"},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "kalshi15m",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "kalshi15m-runs",
			ForcePathStyle: true,
		},
		Mode:     "scan",
		DryRun:   true,
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"watch": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validTIFs enumerates the accepted time_in_force values.
var validTIFs = map[string]domain.TimeInForce{
	"fill_or_kill":        domain.TIFFillOrKill,
	"immediate_or_cancel": domain.TIFImmediateOrCancel,
	"good_till_cancelled": domain.TIFGoodTillCancelled,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found. A policy that fails
// validation here is fatal before any market is evaluated.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, watch)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Kalshi credentials are mandatory for live runs. Dry runs fall back to
	// the simulator when no key is configured.
	if !c.DryRun {
		if c.Kalshi.ApiKey == "" {
			errs = append(errs, "kalshi: api_key is required when dry_run is off")
		}
		if c.Kalshi.RsaPrivateKeyPEM == "" && c.Kalshi.RsaPrivateKeyPath == "" {
			errs = append(errs, "kalshi: rsa_private_key_pem or rsa_private_key_path is required when dry_run is off")
		}
	}
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if strings.ToLower(c.Mode) == "watch" && c.Kalshi.WsURL == "" {
		errs = append(errs, "kalshi: ws_url is required for watch mode")
	}

	// Policy
	if _, err := c.Policy.ToPolicy(); err != nil {
		errs = append(errs, err.Error())
	}

	// Discovery
	if c.Discovery.EventsLimit < 0 {
		errs = append(errs, "discovery: events_limit must be >= 0")
	}

	// RefPrice
	if c.RefPrice.Enabled && c.RefPrice.MinSources < 1 {
		errs = append(errs, "refprice: min_sources must be >= 1 when enabled")
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ToPolicy builds the engine policy from the configured thresholds. Prices
// are parsed as exact decimals; the policy's own invariants are checked by
// domain.Policy.Validate.
func (p PolicyConfig) ToPolicy() (domain.Policy, error) {
	var errs []string

	parse := func(field, value string) decimal.Decimal {
		d, err := decimal.NewFromString(value)
		if err != nil {
			errs = append(errs, fmt.Sprintf("policy: %s %q is not a decimal", field, value))
		}
		return d
	}

	policy := domain.Policy{
		CombinedMaxPrice:       parse("combined_max_price", p.CombinedMaxPrice),
		FastCloseWindowSeconds: p.FastCloseWindowSeconds,
		FastCloseBandLow:       parse("fast_close_band_low", p.FastCloseBandLow),
		FastCloseBandHigh:      parse("fast_close_band_high", p.FastCloseBandHigh),
		OrderCount:             p.OrderCount,
	}

	tif, ok := validTIFs[strings.ToLower(p.TimeInForce)]
	if !ok {
		errs = append(errs, fmt.Sprintf("policy: unknown time_in_force %q (valid: fill_or_kill, immediate_or_cancel, good_till_cancelled)", p.TimeInForce))
	}
	policy.TimeInForce = tif

	if len(errs) > 0 {
		return domain.Policy{}, fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	if err := policy.Validate(); err != nil {
		return domain.Policy{}, err
	}
	return policy, nil
}
