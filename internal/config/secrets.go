package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Kalshi
	out.Kalshi = cfg.Kalshi
	redact(&out.Kalshi.ApiKey)
	redact(&out.Kalshi.RsaPrivateKeyPEM)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.SlackWebhookURL)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Discovery.EventSeriesTickers != nil {
		out.Discovery.EventSeriesTickers = make([]string, len(cfg.Discovery.EventSeriesTickers))
		copy(out.Discovery.EventSeriesTickers, cfg.Discovery.EventSeriesTickers)
	}
	if cfg.Discovery.EventTickerPrefixes != nil {
		out.Discovery.EventTickerPrefixes = make([]string, len(cfg.Discovery.EventTickerPrefixes))
		copy(out.Discovery.EventTickerPrefixes, cfg.Discovery.EventTickerPrefixes)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
