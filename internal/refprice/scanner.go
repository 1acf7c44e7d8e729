// Package refprice scans centralized-exchange reference prices for the
// assets the bot trades against. The scan is observability only; verdicts
// never depend on it.
package refprice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// venueSymbols maps an asset to its symbol on each venue.
var venueSymbols = map[string]struct {
	Coinbase string
	Kraken   string
	Binance  string
}{
	"BTC": {"BTC-USD", "XBTUSD", "BTCUSDT"},
	"ETH": {"ETH-USD", "ETHUSD", "ETHUSDT"},
	"SOL": {"SOL-USD", "SOLUSD", "SOLUSDT"},
}

// Scanner fetches mid prices from Coinbase, Kraken, and Binance public
// tickers and aggregates them per asset.
type Scanner struct {
	httpClient *http.Client
	logger     *slog.Logger

	// minSources is the number of venues that must answer before an asset
	// reference is published.
	minSources int

	coinbaseURL string
	krakenURL   string
	binanceURL  string
}

// NewScanner creates a reference price scanner. minSources below 1 is
// treated as 1.
func NewScanner(minSources int, logger *slog.Logger) *Scanner {
	if minSources < 1 {
		minSources = 1
	}
	return &Scanner{
		httpClient: &http.Client{Timeout: 3 * time.Second},
		logger:     logger.With(slog.String("component", "refprice")),
		minSources: minSources,

		coinbaseURL: "https://api.exchange.coinbase.com",
		krakenURL:   "https://api.kraken.com",
		binanceURL:  "https://api.binance.com",
	}
}

// Scan fetches venue mids for the given assets in parallel and returns one
// reference per asset that met the minimum source count. Venue failures are
// logged and tolerated; Scan itself fails only on context cancellation.
func (s *Scanner) Scan(ctx context.Context, assets []string) ([]domain.AssetReference, error) {
	var mu sync.Mutex
	quotesByAsset := make(map[string][]domain.VenueQuote)

	g, gctx := errgroup.WithContext(ctx)
	for _, asset := range assets {
		symbols, ok := venueSymbols[asset]
		if !ok {
			s.logger.Warn("no venue symbols for asset", slog.String("asset", asset))
			continue
		}

		fetches := []struct {
			venue string
			run   func(context.Context) (float64, error)
		}{
			{"coinbase", func(ctx context.Context) (float64, error) { return s.fetchCoinbaseMid(ctx, symbols.Coinbase) }},
			{"kraken", func(ctx context.Context) (float64, error) { return s.fetchKrakenMid(ctx, symbols.Kraken) }},
			{"binance", func(ctx context.Context) (float64, error) { return s.fetchBinanceMid(ctx, symbols.Binance) }},
		}

		asset := asset
		for _, f := range fetches {
			f := f
			g.Go(func() error {
				mid, err := f.run(gctx)
				if err != nil {
					s.logger.Warn("venue fetch failed",
						slog.String("asset", asset),
						slog.String("venue", f.venue),
						slog.String("error", err.Error()))
					return gctx.Err()
				}
				if !isUsableMid(mid) {
					return nil
				}
				mu.Lock()
				quotesByAsset[asset] = append(quotesByAsset[asset], domain.VenueQuote{Venue: f.venue, Mid: mid})
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("refprice: scan: %w", err)
	}

	now := time.Now().UTC()
	refs := make([]domain.AssetReference, 0, len(assets))
	for _, asset := range assets {
		quotes := quotesByAsset[asset]
		if len(quotes) < s.minSources {
			s.logger.Warn("not enough venues for reference",
				slog.String("asset", asset),
				slog.Int("got", len(quotes)),
				slog.Int("need", s.minSources))
			continue
		}

		ref := domain.AssetReference{
			Asset:          asset,
			ReferencePrice: medianMid(quotes),
			Quotes:         quotes,
			ScannedAt:      now,
		}
		s.logger.Info("reference price",
			slog.String("asset", asset),
			slog.Float64("median", ref.ReferencePrice),
			slog.Int("venues", len(quotes)))
		refs = append(refs, ref)
	}

	return refs, nil
}

// medianMid returns the median of the venue mids.
func medianMid(quotes []domain.VenueQuote) float64 {
	mids := make([]float64, len(quotes))
	for i, q := range quotes {
		mids[i] = q.Mid
	}
	sort.Float64s(mids)

	n := len(mids)
	if n%2 == 0 {
		return (mids[n/2-1] + mids[n/2]) / 2
	}
	return mids[n/2]
}

func isUsableMid(mid float64) bool {
	return !math.IsNaN(mid) && !math.IsInf(mid, 0) && mid > 0
}

// --------------------------------------------------------------------------
// Venue fetchers
// --------------------------------------------------------------------------

func (s *Scanner) fetchCoinbaseMid(ctx context.Context, product string) (float64, error) {
	var payload struct {
		Bid string `json:"bid"`
		Ask string `json:"ask"`
	}
	url := fmt.Sprintf("%s/products/%s/ticker", s.coinbaseURL, product)
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return 0, fmt.Errorf("coinbase: %w", err)
	}
	return midFromStrings(payload.Bid, payload.Ask, "coinbase")
}

func (s *Scanner) fetchKrakenMid(ctx context.Context, pair string) (float64, error) {
	var payload struct {
		Result map[string]struct {
			A []string `json:"a"`
			B []string `json:"b"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", s.krakenURL, pair)
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return 0, fmt.Errorf("kraken: %w", err)
	}

	for _, entry := range payload.Result {
		if len(entry.A) == 0 || len(entry.B) == 0 {
			break
		}
		return midFromStrings(entry.B[0], entry.A[0], "kraken")
	}
	return 0, fmt.Errorf("kraken: empty result for %s", pair)
}

func (s *Scanner) fetchBinanceMid(ctx context.Context, symbol string) (float64, error) {
	var payload struct {
		BidPrice string `json:"bidPrice"`
		AskPrice string `json:"askPrice"`
	}
	url := fmt.Sprintf("%s/api/v3/ticker/bookTicker?symbol=%s", s.binanceURL, symbol)
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return 0, fmt.Errorf("binance: %w", err)
	}
	return midFromStrings(payload.BidPrice, payload.AskPrice, "binance")
}

func (s *Scanner) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func midFromStrings(bid, ask, venue string) (float64, error) {
	b, err := strconv.ParseFloat(bid, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid bid %q", venue, bid)
	}
	a, err := strconv.ParseFloat(ask, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid ask %q", venue, ask)
	}
	if b <= 0 || a <= 0 {
		return 0, fmt.Errorf("%s: non-positive bid/ask", venue)
	}
	return (b + a) / 2, nil
}
