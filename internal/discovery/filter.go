package discovery

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
	"github.com/alanyoungcy/kalshi15m/internal/platform/kalshi"
)

// assetAliases maps an asset tag to full names that also count as a match.
var assetAliases = map[string][]string{
	"btc": {"bitcoin"},
	"eth": {"ethereum"},
	"sol": {"solana"},
}

// isCryptoText reports whether value mentions any of the configured assets,
// either by tag or by full name.
func isCryptoText(value string, assets []string) bool {
	if value == "" {
		return false
	}
	v := strings.ToLower(value)
	for _, asset := range assets {
		if asset == "" {
			continue
		}
		if strings.Contains(v, asset) {
			return true
		}
		for _, alias := range assetAliases[asset] {
			if strings.Contains(v, alias) {
				return true
			}
		}
	}
	return false
}

func isCryptoRelated(m kalshi.Market, assets []string) bool {
	return isCryptoText(marketHaystack(m), assets)
}

func isBTCRelated(m kalshi.Market) bool {
	h := strings.ToLower(marketHaystack(m))
	return strings.Contains(h, "btc") || strings.Contains(h, "bitcoin")
}

func marketHaystack(m kalshi.Market) string {
	return m.Title + " " + m.Subtitle + " " + m.EventTicker
}

// hasTickerPrefix reports whether the event ticker starts with any of the
// configured prefixes, case-insensitively.
func hasTickerPrefix(eventTicker string, prefixes []string) bool {
	ticker := strings.ToUpper(eventTicker)
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(ticker, strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}

// CanonicalFrequency normalizes the many spellings of "every 15 minutes"
// to the API's "fifteen_min" value. Unrecognized inputs pass through with
// separators normalized.
func CanonicalFrequency(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "-", "_")
	v = strings.ReplaceAll(v, " ", "_")
	switch v {
	case "15m", "15min", "15mins", "15_min", "15_mins", "15minutes", "15_minutes",
		"fifteenmin", "fifteen_mins":
		return "fifteen_min"
	}
	return v
}

// toQuote converts an API market into an engine quote. The dollar-string ask
// is authoritative; the cent field is the fallback. Unparseable or absent
// asks leave the NullDecimal invalid.
func toQuote(m kalshi.Market, now time.Time) domain.Quote {
	return domain.Quote{
		Ticker:         m.Ticker,
		Title:          m.Title,
		EventTicker:    m.EventTicker,
		CloseTime:      m.CloseTime,
		YesAsk:         parseAsk(m.YesAskDollars, m.YesAsk),
		NoAsk:          parseAsk(m.NoAskDollars, m.NoAsk),
		SecondsToClose: int64(m.CloseTime.Sub(now) / time.Second),
	}
}

func parseAsk(dollars string, cents int64) decimal.NullDecimal {
	if dollars != "" {
		if d, err := decimal.NewFromString(dollars); err == nil {
			return decimal.NewNullDecimal(d)
		}
		return decimal.NullDecimal{}
	}
	if cents > 0 {
		return decimal.NewNullDecimal(decimal.New(cents, -2))
	}
	return decimal.NullDecimal{}
}
