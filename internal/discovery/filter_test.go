package discovery

import (
	"testing"
	"time"

	"github.com/alanyoungcy/kalshi15m/internal/platform/kalshi"
)

func TestCanonicalFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15m", "fifteen_min"},
		{"15min", "fifteen_min"},
		{"15 min", "fifteen_min"},
		{"15-mins", "fifteen_min"},
		{"15 Minutes", "fifteen_min"},
		{"fifteen_min", "fifteen_min"},
		{"FifteenMin", "fifteen_min"},
		{"hourly", "hourly"},
		{"", ""},
		{"  daily  ", "daily"},
	}

	for _, tt := range tests {
		if got := CanonicalFrequency(tt.in); got != tt.want {
			t.Errorf("CanonicalFrequency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsCryptoText(t *testing.T) {
	assets := []string{"btc", "eth", "sol"}

	tests := []struct {
		value string
		want  bool
	}{
		{"BTC price at 3:15 EDT", true},
		{"Bitcoin above $64,000?", true},
		{"Ethereum 15 min close", true},
		{"Solana range", true},
		{"KXSOL15M-26AUG30", true},
		{"Fed rate decision", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isCryptoText(tt.value, assets); got != tt.want {
			t.Errorf("isCryptoText(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	if isCryptoText("Bitcoin above $64,000?", nil) {
		t.Error("empty asset list must match nothing")
	}
}

func TestHasTickerPrefix(t *testing.T) {
	prefixes := []string{"KXBTC15M", "KXETH15M"}

	if !hasTickerPrefix("kxbtc15m-26aug3015", prefixes) {
		t.Error("prefix match must be case-insensitive")
	}
	if hasTickerPrefix("KXINX-26AUG30", prefixes) {
		t.Error("unrelated ticker matched")
	}
	if hasTickerPrefix("KXBTC15M-X", nil) {
		t.Error("empty prefix list must match nothing")
	}
}

func TestIntervalRegexMatching(t *testing.T) {
	s, err := NewSupplier(nil, Config{}, discardLogger())
	if err != nil {
		t.Fatalf("NewSupplier() error: %v", err)
	}

	tests := []struct {
		market kalshi.Market
		want   bool
	}{
		{kalshi.Market{Title: "BTC up in the next 15 min?"}, true},
		{kalshi.Market{Title: "BTC 15m close"}, true},
		{kalshi.Market{Title: "ETH price", Subtitle: "15 minutes"}, true},
		{kalshi.Market{Title: "SOL range", EventTicker: "KXSOL15M-26AUG30"}, true},
		{kalshi.Market{Title: "BTC hourly close"}, false},
		{kalshi.Market{Title: "Will it rain in 150 minutes"}, false},
		{kalshi.Market{Title: "BTC at 3:15pm"}, false},
		{kalshi.Market{Title: "BTC 15max leverage"}, false},
	}

	for _, tt := range tests {
		if got := s.matchesInterval(tt.market); got != tt.want {
			t.Errorf("matchesInterval(%q/%q/%q) = %v, want %v",
				tt.market.Title, tt.market.Subtitle, tt.market.EventTicker, got, tt.want)
		}
	}
}

func TestToQuoteParsesDollarsWithCentFallback(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	m := kalshi.Market{
		Ticker:        "KXBTC15M-A",
		Title:         "BTC up?",
		EventTicker:   "KXBTC15M-26AUG3015",
		CloseTime:     now.Add(90 * time.Second),
		YesAskDollars: "0.4800",
		NoAsk:         51,
	}

	q := toQuote(m, now)
	if q.SecondsToClose != 90 {
		t.Fatalf("seconds to close = %d, want 90", q.SecondsToClose)
	}
	if !q.YesAsk.Valid || q.YesAsk.Decimal.String() != "0.48" {
		t.Fatalf("yes ask = %+v, want 0.48", q.YesAsk)
	}
	if !q.NoAsk.Valid || q.NoAsk.Decimal.String() != "0.51" {
		t.Fatalf("no ask from cents = %+v, want 0.51", q.NoAsk)
	}
}

func TestToQuoteInvalidAskIsMissing(t *testing.T) {
	now := time.Now()
	m := kalshi.Market{
		Ticker:        "KXBTC15M-B",
		CloseTime:     now.Add(time.Minute),
		YesAskDollars: "n/a",
	}

	q := toQuote(m, now)
	if q.YesAsk.Valid {
		t.Fatal("unparseable dollar ask must be missing, not zero")
	}
	if q.NoAsk.Valid {
		t.Fatal("absent ask must be missing")
	}
	if q.HasQuote() {
		t.Fatal("quote with missing asks must report HasQuote false")
	}
}
