package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	s3blob "github.com/alanyoungcy/kalshi15m/internal/blob/s3"
	"github.com/alanyoungcy/kalshi15m/internal/cache/redis"
	"github.com/alanyoungcy/kalshi15m/internal/config"
	"github.com/alanyoungcy/kalshi15m/internal/discovery"
	"github.com/alanyoungcy/kalshi15m/internal/domain"
	"github.com/alanyoungcy/kalshi15m/internal/engine"
	"github.com/alanyoungcy/kalshi15m/internal/notify"
	"github.com/alanyoungcy/kalshi15m/internal/platform/kalshi"
	"github.com/alanyoungcy/kalshi15m/internal/refprice"
	"github.com/alanyoungcy/kalshi15m/internal/store/postgres"
)

// Dependencies bundles everything the run modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
// Optional subsystems (run audit, reference cache, run archive) are nil when
// disabled in config.
type Dependencies struct {
	Policy domain.Policy
	Mode   domain.Mode

	Client    *kalshi.Client
	Submitter engine.OrderSubmitter
	Supplier  *discovery.Supplier

	// RefScanner is nil when the reference price scan is disabled.
	RefScanner *refprice.Scanner

	Notifier *notify.Notifier

	RunStore *postgres.RunStore
	RefCache *redis.RefPriceCache
	Archiver *s3blob.Archiver
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	policy, err := cfg.Policy.ToPolicy()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: policy: %w", err)
	}

	mode := domain.ModeLive
	if cfg.DryRun {
		mode = domain.ModeDryRun
	}

	deps := &Dependencies{Policy: policy, Mode: mode}

	// --- Kalshi client ---
	client := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiPrefix, cfg.Kalshi.ApiKey)
	keyPEM, err := loadPrivateKeyPEM(cfg.Kalshi)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
	}
	if len(keyPEM) > 0 {
		if err := client.SetRSAPrivateKey(keyPEM); err != nil {
			return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
		}
	} else if !cfg.DryRun {
		return nil, nil, fmt.Errorf("wire: kalshi key: live mode requires an RSA private key")
	}
	deps.Client = client

	// Dry runs go through the simulator; the real submitter is only wired
	// when an order could actually be placed.
	if cfg.DryRun {
		deps.Submitter = kalshi.NewSimulator(logger)
	} else {
		deps.Submitter = kalshi.NewSubmitter(client, logger)
	}

	// --- Discovery ---
	supplier, err := discovery.NewSupplier(client, discovery.Config{
		DiscoverEvents:      cfg.Discovery.DiscoverEvents,
		DiscoverSeries:      cfg.Discovery.DiscoverSeries,
		EventSeriesTickers:  cfg.Discovery.EventSeriesTickers,
		EventTickerPrefixes: cfg.Discovery.EventTickerPrefixes,
		EventsLimit:         cfg.Discovery.EventsLimit,
		MinCloseTS:          cfg.Discovery.MinCloseTS,
		SeriesCategory:      cfg.Discovery.SeriesCategory,
		SeriesFrequency:     cfg.Discovery.SeriesFrequency,
		CryptoAssets:        cfg.Discovery.CryptoAssets,
		CryptoOnly:          cfg.Discovery.CryptoOnly,
		BTCOnly:             cfg.Discovery.BTCOnly,
		IntervalRegex:       cfg.Discovery.IntervalRegex,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: discovery: %w", err)
	}
	deps.Supplier = supplier

	// --- Reference prices ---
	if cfg.RefPrice.Enabled {
		deps.RefScanner = refprice.NewScanner(cfg.RefPrice.MinSources, logger)
	}

	// --- PostgreSQL run audit (optional) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.RunStore = postgres.NewRunStore(pgClient.Pool())
	}

	// --- Redis reference price cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.RefCache = redis.NewRefPriceCache(redisClient)
	}

	// --- S3 run archive (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.SlackWebhookURL != "" {
		senders = append(senders, notify.NewSlackSender(cfg.Notify.SlackWebhookURL))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// loadPrivateKeyPEM returns the configured RSA private key material, inline
// PEM taking precedence over a key file. Returns nil when neither is set.
func loadPrivateKeyPEM(cfg config.KalshiConfig) ([]byte, error) {
	if cfg.RsaPrivateKeyPEM != "" {
		return []byte(cfg.RsaPrivateKeyPEM), nil
	}
	if cfg.RsaPrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.RsaPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", cfg.RsaPrivateKeyPath, err)
		}
		return data, nil
	}
	return nil, nil
}
