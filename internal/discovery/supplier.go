// Package discovery finds candidate 15-minute crypto markets on Kalshi and
// converts them into quotes for the run engine.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
	"github.com/alanyoungcy/kalshi15m/internal/platform/kalshi"
)

// DefaultIntervalRegex matches 15-minute interval wording in market titles,
// subtitles, and event tickers. A letter is allowed before the 15 so series
// tickers like KXBTC15M match; "150 minutes" and clock times like 3:15pm do
// not.
const DefaultIntervalRegex = `(?i)(\b|[a-z])15\s?m(in(ute)?s?)?\b`

// MarketAPI is the slice of the exchange client discovery needs.
type MarketAPI interface {
	GetMarkets(ctx context.Context, seriesTicker, cursor string) (kalshi.MarketPage, error)
	GetEvents(ctx context.Context, seriesTicker string, minCloseTS int64, limit int, cursor string) (kalshi.EventPage, error)
	GetSeries(ctx context.Context, category, cursor string) (kalshi.SeriesPage, error)
}

// Config controls which listing path is used and how candidates are
// filtered.
type Config struct {
	// DiscoverEvents lists open events with nested markets per configured
	// series ticker. This is the default path.
	DiscoverEvents bool
	// DiscoverSeries resolves series by category and frequency first, then
	// lists markets per matched series. Checked only when DiscoverEvents is
	// off. When both are off the full open-market list is used.
	DiscoverSeries bool

	EventSeriesTickers  []string
	EventTickerPrefixes []string
	EventsLimit         int
	MinCloseTS          int64

	SeriesCategory  string
	SeriesFrequency string

	// CryptoAssets are lowercase asset tags ("btc", "eth", "sol"); common
	// full names are matched as aliases.
	CryptoAssets []string
	CryptoOnly   bool
	BTCOnly      bool

	IntervalRegex string
}

// Supplier produces the ordered candidate list for a run.
type Supplier struct {
	api        MarketAPI
	cfg        Config
	intervalRe *regexp.Regexp
	logger     *slog.Logger
	now        func() time.Time
}

// NewSupplier creates a Supplier. The interval regexp is compiled once; an
// invalid pattern is a configuration error.
func NewSupplier(api MarketAPI, cfg Config, logger *slog.Logger) (*Supplier, error) {
	pattern := cfg.IntervalRegex
	if pattern == "" {
		pattern = DefaultIntervalRegex
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("discovery: compile interval regex %q: %w", pattern, err)
	}
	if cfg.EventsLimit <= 0 {
		cfg.EventsLimit = 200
	}

	return &Supplier{
		api:        api,
		cfg:        cfg,
		intervalRe: re,
		logger:     logger.With(slog.String("component", "discovery")),
		now:        time.Now,
	}, nil
}

// Quotes lists markets through the configured discovery path, applies the
// candidate filters, and returns quotes in listing order.
func (s *Supplier) Quotes(ctx context.Context) ([]domain.Quote, error) {
	markets, err := s.listMarkets(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quotes := make([]domain.Quote, 0, len(markets))
	for _, m := range markets {
		if !s.admit(m) {
			continue
		}
		quotes = append(quotes, toQuote(m, now))
	}

	s.logger.Info("discovery complete",
		slog.Int("markets", len(markets)),
		slog.Int("candidates", len(quotes)))
	return quotes, nil
}

// admit applies the candidate filters in order: open status, BTC-only,
// crypto relevance, 15-minute interval.
func (s *Supplier) admit(m kalshi.Market) bool {
	if m.Status != "" && m.Status != "open" {
		return false
	}
	if s.cfg.BTCOnly && !isBTCRelated(m) {
		return false
	}
	if s.cfg.CryptoOnly && !isCryptoRelated(m, s.cfg.CryptoAssets) {
		return false
	}
	return s.matchesInterval(m)
}

func (s *Supplier) matchesInterval(m kalshi.Market) bool {
	return s.intervalRe.MatchString(m.Title) ||
		s.intervalRe.MatchString(m.Subtitle) ||
		s.intervalRe.MatchString(m.EventTicker)
}

func (s *Supplier) listMarkets(ctx context.Context) ([]kalshi.Market, error) {
	switch {
	case s.cfg.DiscoverEvents:
		return s.listEventMarkets(ctx)
	case s.cfg.DiscoverSeries:
		return s.listSeriesMarkets(ctx)
	default:
		return s.listAllMarkets(ctx)
	}
}

// listEventMarkets pages through open events (nested markets included) per
// configured series ticker and keeps the crypto-related ones.
func (s *Supplier) listEventMarkets(ctx context.Context) ([]kalshi.Market, error) {
	seriesTickers := s.cfg.EventSeriesTickers
	if len(seriesTickers) == 0 {
		seriesTickers = []string{""}
	}

	var markets []kalshi.Market
	for _, seriesTicker := range seriesTickers {
		cursor := ""
		for page := 1; ; page++ {
			s.logger.Debug("fetching events page",
				slog.String("series", seriesTicker),
				slog.Int("page", page))

			resp, err := s.api.GetEvents(ctx, seriesTicker, s.cfg.MinCloseTS, s.cfg.EventsLimit, cursor)
			if err != nil {
				return nil, fmt.Errorf("discovery: list events: %w", err)
			}

			for _, event := range resp.Events {
				if !s.admitEvent(event) {
					continue
				}
				s.logger.Debug("crypto event",
					slog.String("event_ticker", event.EventTicker),
					slog.String("title", event.Title))
				markets = append(markets, event.Markets...)
			}

			cursor = resp.Cursor
			if cursor == "" {
				break
			}
		}
	}

	s.logger.Info("fetched markets via events", slog.Int("count", len(markets)))
	return markets, nil
}

func (s *Supplier) admitEvent(e kalshi.Event) bool {
	return hasTickerPrefix(e.EventTicker, s.cfg.EventTickerPrefixes) ||
		isCryptoText(e.Title, s.cfg.CryptoAssets) ||
		isCryptoText(e.Subtitle, s.cfg.CryptoAssets) ||
		isCryptoText(e.Category, s.cfg.CryptoAssets) ||
		isCryptoText(e.EventTicker, s.cfg.CryptoAssets)
}

// listSeriesMarkets resolves series by category and canonical frequency,
// then lists markets per matched series. Falls back to the full market list
// when nothing matches.
func (s *Supplier) listSeriesMarkets(ctx context.Context) ([]kalshi.Market, error) {
	frequency := CanonicalFrequency(s.cfg.SeriesFrequency)

	var matched []kalshi.Series
	cursor := ""
	total := 0
	for {
		resp, err := s.api.GetSeries(ctx, s.cfg.SeriesCategory, cursor)
		if err != nil {
			return nil, fmt.Errorf("discovery: list series: %w", err)
		}
		total += len(resp.Series)
		for _, entry := range resp.Series {
			if frequency == "" || CanonicalFrequency(entry.Frequency) == frequency {
				matched = append(matched, entry)
			}
		}
		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}

	if len(matched) == 0 {
		s.logger.Warn("no series matched, falling back to full market list",
			slog.String("category", s.cfg.SeriesCategory),
			slog.String("frequency", frequency),
			slog.Int("total_series", total))
		return s.listAllMarkets(ctx)
	}

	var markets []kalshi.Market
	for _, entry := range matched {
		s.logger.Debug("matched series",
			slog.String("ticker", entry.Ticker),
			slog.String("title", entry.Title))

		cursor = ""
		for {
			resp, err := s.api.GetMarkets(ctx, entry.Ticker, cursor)
			if err != nil {
				return nil, fmt.Errorf("discovery: list markets for series %s: %w", entry.Ticker, err)
			}
			markets = append(markets, resp.Markets...)
			cursor = resp.Cursor
			if cursor == "" {
				break
			}
		}
	}

	s.logger.Info("fetched markets via series discovery", slog.Int("count", len(markets)))
	return markets, nil
}

func (s *Supplier) listAllMarkets(ctx context.Context) ([]kalshi.Market, error) {
	var markets []kalshi.Market
	cursor := ""
	for page := 1; ; page++ {
		s.logger.Debug("fetching markets page", slog.Int("page", page))

		resp, err := s.api.GetMarkets(ctx, "", cursor)
		if err != nil {
			return nil, fmt.Errorf("discovery: list markets: %w", err)
		}
		markets = append(markets, resp.Markets...)
		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}

	s.logger.Info("fetched markets", slog.Int("count", len(markets)))
	return markets, nil
}
