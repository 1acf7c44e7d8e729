package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

func sampleSummary() domain.RunSummary {
	return domain.RunSummary{
		RunID:      "run-1",
		Mode:       domain.ModeDryRun,
		FinishedAt: time.Date(2026, 8, 30, 15, 14, 0, 0, time.UTC),
		Considered: 3,
		Qualified:  1,
		Decisions: []domain.DecisionRecord{
			{
				Ticker:         "KXBTC15M-A",
				Title:          "BTC up?",
				YesAsk:         "0.5500",
				NoAsk:          "0.5000",
				SecondsToClose: 620,
				Verdict:        domain.Skip(domain.SkipCombinedPriceTooHigh),
			},
			{
				Ticker:         "KXBTC15M-B",
				Title:          "BTC down?",
				YesAsk:         "0.4800",
				NoAsk:          "0.4900",
				SecondsToClose: 95,
				Verdict:        domain.Qualify(domain.QualifyCombinedPrice),
			},
			{
				Ticker:         "KXETH15M-A",
				Title:          "ETH up?",
				SecondsToClose: 300,
				Verdict:        domain.Skip(domain.SkipNoQuote),
			},
		},
		OrdersSubmitted: 2,
		OrdersSimulated: 2,
	}
}

func TestTitleReflectsMode(t *testing.T) {
	s := sampleSummary()
	if got := Title(s); !strings.Contains(got, "`DRY_RUN`") {
		t.Fatalf("dry-run title = %q", got)
	}

	s.Mode = domain.ModeLive
	if got := Title(s); !strings.Contains(got, "`LIVE`") {
		t.Fatalf("live title = %q", got)
	}
}

func TestBuildSuccessDigest(t *testing.T) {
	got := Build(sampleSummary())

	for _, want := range []string{
		"Opportunities: 1 (of 3 considered)",
		"Result: OK",
		"Orders: 2 submitted, 0 filled, 0 rejected, 2 simulated",
		"*Highlights*",
		"YES 0.4800 / NO 0.4900",
		"TTL 1m35s",
		"(KXBTC15M-B)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Error Details") {
		t.Errorf("success digest contains error section:\n%s", got)
	}

	// Qualified markets come first.
	if strings.Index(got, "KXBTC15M-B") > strings.Index(got, "KXBTC15M-A") {
		t.Errorf("qualified market not listed first:\n%s", got)
	}
}

func TestBuildErrorDigest(t *testing.T) {
	s := sampleSummary()
	s.Err = "kalshi: create order: connection refused"

	got := Build(s)
	if !strings.Contains(got, "Result: ERROR") {
		t.Fatalf("digest missing error result:\n%s", got)
	}
	if !strings.Contains(got, "*Error Details*") || !strings.Contains(got, "connection refused") {
		t.Fatalf("digest missing error details:\n%s", got)
	}
}

func TestBuildIncludesReferences(t *testing.T) {
	s := sampleSummary()
	s.References = []domain.AssetReference{
		{Asset: "BTC", ReferencePrice: 64100.5, Quotes: []domain.VenueQuote{{Venue: "coinbase"}, {Venue: "kraken"}}},
	}

	got := Build(s)
	if !strings.Contains(got, "*Reference Prices*") || !strings.Contains(got, "BTC 64100.50 (2 venues)") {
		t.Fatalf("digest missing reference prices:\n%s", got)
	}
}

func TestBuildTruncatesHighlights(t *testing.T) {
	s := domain.RunSummary{FinishedAt: time.Now()}
	for i := 0; i < 10; i++ {
		s.Decisions = append(s.Decisions, domain.DecisionRecord{
			Ticker:  fmt.Sprintf("KXBTC15M-%d", i),
			Title:   "BTC up?",
			Verdict: domain.Skip(domain.SkipCombinedPriceTooHigh),
		})
	}
	s.Considered = len(s.Decisions)

	got := Build(s)
	if !strings.Contains(got, "... and 4 more") {
		t.Fatalf("digest not truncated:\n%s", got)
	}
	if strings.Count(got, "\n- *BTC up?*") != 6 {
		t.Fatalf("highlight count wrong:\n%s", got)
	}
}

func TestFormatTTL(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{30, "0m30s"},
		{95, "1m35s"},
		{600, "10m00s"},
		{-5, "-5s"},
	}
	for _, tt := range tests {
		if got := formatTTL(tt.in); got != tt.want {
			t.Errorf("formatTTL(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
