package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

func quoteWithAsks(t *testing.T, yes, no string, secondsToClose int64) domain.Quote {
	t.Helper()
	q := domain.Quote{
		Ticker:         "KXBTC15M-TEST",
		Title:          "BTC above 50000 at 12:15?",
		SecondsToClose: secondsToClose,
	}
	if yes != "" {
		q.YesAsk = decimal.NewNullDecimal(decimal.RequireFromString(yes))
	}
	if no != "" {
		q.NoAsk = decimal.NewNullDecimal(decimal.RequireFromString(no))
	}
	return q
}

func TestEvaluate(t *testing.T) {
	policy := domain.DefaultPolicy()

	cases := []struct {
		name           string
		yes, no        string
		secondsToClose int64
		wantQualified  bool
		wantReason     domain.Reason
	}{
		{
			name: "combined below ceiling qualifies",
			yes:  "0.48", no: "0.49", secondsToClose: 900,
			wantQualified: true, wantReason: domain.QualifyCombinedPrice,
		},
		{
			name: "combined above ceiling skips",
			yes:  "0.55", no: "0.50", secondsToClose: 900,
			wantQualified: false, wantReason: domain.SkipCombinedPriceTooHigh,
		},
		{
			name: "combined exactly at ceiling skips",
			yes:  "0.50", no: "0.50", secondsToClose: 900,
			wantQualified: false, wantReason: domain.SkipCombinedPriceTooHigh,
		},
		{
			name: "band override inside window beats ceiling",
			yes:  "0.96", no: "0.80", secondsToClose: 30,
			wantQualified: true, wantReason: domain.QualifyFastCloseBand,
		},
		{
			name: "band on both sides with absurd combined still qualifies",
			yes:  "0.95", no: "0.95", secondsToClose: 30,
			wantQualified: true, wantReason: domain.QualifyFastCloseBand,
		},
		{
			name: "band price but outside window skips",
			yes:  "0.95", no: "0.80", secondsToClose: 120,
			wantQualified: false, wantReason: domain.SkipOutsideFastCloseWindow,
		},
		{
			name: "window boundary is exclusive",
			yes:  "0.95", no: "0.80", secondsToClose: 60,
			wantQualified: false, wantReason: domain.SkipOutsideFastCloseWindow,
		},
		{
			name: "band edges are inclusive",
			yes:  "0.90", no: "0.99", secondsToClose: 10,
			wantQualified: true, wantReason: domain.QualifyFastCloseBand,
		},
		{
			name: "just outside band inside window falls through to combined",
			yes:  "0.98", no: "0.89", secondsToClose: 10,
			wantQualified: false, wantReason: domain.SkipCombinedPriceTooHigh,
		},
		{
			name: "already closed skips regardless of prices",
			yes:  "0.40", no: "0.40", secondsToClose: -5,
			wantQualified: false, wantReason: domain.SkipAlreadyClosed,
		},
		{
			name: "closed market with missing ask is already closed, not no quote",
			yes:  "", no: "0.40", secondsToClose: -5,
			wantQualified: false, wantReason: domain.SkipAlreadyClosed,
		},
		{
			name: "missing yes ask skips before the rules",
			yes:  "", no: "0.40", secondsToClose: 900,
			wantQualified: false, wantReason: domain.SkipNoQuote,
		},
		{
			name: "missing no ask skips before the rules",
			yes:  "0.40", no: "", secondsToClose: 30,
			wantQualified: false, wantReason: domain.SkipNoQuote,
		},
		{
			name: "zero seconds to close is inside the window",
			yes:  "0.93", no: "0.50", secondsToClose: 0,
			wantQualified: true, wantReason: domain.QualifyFastCloseBand,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(quoteWithAsks(t, tc.yes, tc.no, tc.secondsToClose), policy)
			if got.Qualified != tc.wantQualified || got.Reason != tc.wantReason {
				t.Fatalf("Evaluate() = {%v %q}, want {%v %q}",
					got.Qualified, got.Reason, tc.wantQualified, tc.wantReason)
			}
		})
	}
}

func TestEvaluateIsPure(t *testing.T) {
	policy := domain.DefaultPolicy()
	quote := quoteWithAsks(t, "0.48", "0.49", 900)

	first := Evaluate(quote, policy)
	for i := 0; i < 100; i++ {
		if got := Evaluate(quote, policy); got != first {
			t.Fatalf("iteration %d: Evaluate() = %+v, want %+v", i, got, first)
		}
	}
}

func TestEvaluateCustomBand(t *testing.T) {
	policy := domain.DefaultPolicy()
	policy.FastCloseBandLow = decimal.RequireFromString("0.80")
	policy.FastCloseBandHigh = decimal.RequireFromString("0.85")
	policy.FastCloseWindowSeconds = 120

	got := Evaluate(quoteWithAsks(t, "0.82", "0.50", 90), policy)
	if !got.Qualified || got.Reason != domain.QualifyFastCloseBand {
		t.Fatalf("Evaluate() = %+v, want fast-close qualify", got)
	}

	got = Evaluate(quoteWithAsks(t, "0.95", "0.50", 90), policy)
	if got.Qualified {
		t.Fatalf("Evaluate() = %+v, want skip outside custom band", got)
	}
}
