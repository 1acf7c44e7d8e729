package engine

import (
	"testing"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

func TestPlanPairProducesBothLegs(t *testing.T) {
	policy := domain.DefaultPolicy()
	policy.OrderCount = 3
	quote := quoteWithAsks(t, "0.48", "0.49", 900)

	pair, err := PlanPair(quote, domain.Qualify(domain.QualifyCombinedPrice), policy)
	if err != nil {
		t.Fatalf("PlanPair() error: %v", err)
	}

	intents := pair.Intents()
	if len(intents) != 2 {
		t.Fatalf("Intents() returned %d legs, want 2", len(intents))
	}
	if intents[0].Side != domain.SideYes || intents[1].Side != domain.SideNo {
		t.Fatalf("leg order = %s,%s, want yes,no", intents[0].Side, intents[1].Side)
	}

	for _, intent := range intents {
		if intent.Ticker != quote.Ticker {
			t.Fatalf("intent ticker = %q, want %q", intent.Ticker, quote.Ticker)
		}
		if intent.Count != 3 {
			t.Fatalf("intent count = %d, want 3", intent.Count)
		}
		if intent.TIF != domain.TIFFillOrKill {
			t.Fatalf("intent tif = %q, want %q", intent.TIF, domain.TIFFillOrKill)
		}
		if intent.ID == "" {
			t.Fatal("intent has empty client ID")
		}
	}

	if !pair.Yes.LimitPrice.Equal(quote.YesAsk.Decimal) {
		t.Fatalf("yes limit = %s, want %s", pair.Yes.LimitPrice, quote.YesAsk.Decimal)
	}
	if !pair.No.LimitPrice.Equal(quote.NoAsk.Decimal) {
		t.Fatalf("no limit = %s, want %s", pair.No.LimitPrice, quote.NoAsk.Decimal)
	}
}

func TestPlanPairRejectsSkipVerdict(t *testing.T) {
	quote := quoteWithAsks(t, "0.55", "0.50", 900)

	_, err := PlanPair(quote, domain.Skip(domain.SkipCombinedPriceTooHigh), domain.DefaultPolicy())
	if err == nil {
		t.Fatal("PlanPair() accepted a skip verdict, want error")
	}
}
