package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// fixedSubmitter answers every intent with the same outcome status.
type fixedSubmitter struct {
	status domain.OutcomeStatus
	calls  int
}

func (f *fixedSubmitter) SubmitOrder(_ context.Context, intent domain.OrderIntent) (domain.OrderOutcome, error) {
	f.calls++
	return domain.OrderOutcome{
		Intent:  intent,
		Status:  f.status,
		OrderID: fmt.Sprintf("ord-%d", f.calls),
	}, nil
}

// failAfterSubmitter fills n orders then fails with a transport error.
type failAfterSubmitter struct {
	n     int
	calls int
}

func (f *failAfterSubmitter) SubmitOrder(_ context.Context, intent domain.OrderIntent) (domain.OrderOutcome, error) {
	if f.calls >= f.n {
		return domain.OrderOutcome{}, fmt.Errorf("connection refused: %w", domain.ErrTransport)
	}
	f.calls++
	return domain.OrderOutcome{Intent: intent, Status: domain.OutcomeFilled, OrderID: fmt.Sprintf("ord-%d", f.calls)}, nil
}

func testCandidates(t *testing.T) []domain.Quote {
	t.Helper()
	return []domain.Quote{
		quoteWithAsks(t, "0.48", "0.49", 900),	// qualifies: combined
		quoteWithAsks(t, "0.55", "0.50", 900),	// skip: too high
		quoteWithAsks(t, "0.96", "0.80", 30),	// qualifies: fast close
		quoteWithAsks(t, "", "0.40", 900),	// skip: no quote
		quoteWithAsks(t, "0.40", "0.40", -5),	// skip: already closed
		quoteWithAsks(t, "0.95", "0.80", 120),	// skip: outside window
	}
}

func TestDriverRunCounts(t *testing.T) {
	sub := &fixedSubmitter{status: domain.OutcomeFilled}
	driver, err := NewDriver(sub, domain.DefaultPolicy(), domain.ModeLive, discardLogger())
	if err != nil {
		t.Fatalf("NewDriver() error: %v", err)
	}

	summary, err := driver.Run(context.Background(), testCandidates(t), nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if summary.Considered != 6 {
		t.Fatalf("considered = %d, want 6", summary.Considered)
	}
	if summary.Qualified != 2 {
		t.Fatalf("qualified = %d, want 2", summary.Qualified)
	}
	if summary.OrdersSubmitted != 4 || summary.OrdersFilled != 4 {
		t.Fatalf("orders submitted/filled = %d/%d, want 4/4", summary.OrdersSubmitted, summary.OrdersFilled)
	}
	wantSkips := map[domain.Reason]int{
		domain.SkipCombinedPriceTooHigh:   1,
		domain.SkipNoQuote:                1,
		domain.SkipAlreadyClosed:          1,
		domain.SkipOutsideFastCloseWindow: 1,
	}
	for reason, want := range wantSkips {
		if got := summary.SkippedByReason[reason]; got != want {
			t.Fatalf("skipped[%s] = %d, want %d", reason, got, want)
		}
	}
	if len(summary.Decisions) != 6 {
		t.Fatalf("decisions = %d, want 6", len(summary.Decisions))
	}
	if summary.RunID == "" || summary.FinishedAt.IsZero() {
		t.Fatal("summary missing run ID or finish timestamp")
	}
}

func TestDriverDryRunParity(t *testing.T) {
	candidates := testCandidates(t)

	liveSub := &fixedSubmitter{status: domain.OutcomeFilled}
	live, err := NewDriver(liveSub, domain.DefaultPolicy(), domain.ModeLive, discardLogger())
	if err != nil {
		t.Fatalf("NewDriver(live) error: %v", err)
	}
	drySub := &fixedSubmitter{status: domain.OutcomeSimulatedFill}
	dry, err := NewDriver(drySub, domain.DefaultPolicy(), domain.ModeDryRun, discardLogger())
	if err != nil {
		t.Fatalf("NewDriver(dry) error: %v", err)
	}

	liveSum, err := live.Run(context.Background(), candidates, nil)
	if err != nil {
		t.Fatalf("live Run() error: %v", err)
	}
	drySum, err := dry.Run(context.Background(), candidates, nil)
	if err != nil {
		t.Fatalf("dry Run() error: %v", err)
	}

	if liveSum.Qualified != drySum.Qualified || liveSum.Considered != drySum.Considered {
		t.Fatalf("qualification counts diverge: live %d/%d, dry %d/%d",
			liveSum.Qualified, liveSum.Considered, drySum.Qualified, drySum.Considered)
	}
	if liveSum.OrdersSubmitted != drySum.OrdersSubmitted {
		t.Fatalf("orders submitted diverge: live %d, dry %d", liveSum.OrdersSubmitted, drySum.OrdersSubmitted)
	}
	if drySum.OrdersSimulated != drySum.OrdersSubmitted {
		t.Fatalf("dry run must simulate every order: %d/%d", drySum.OrdersSimulated, drySum.OrdersSubmitted)
	}
	if liveSum.OrdersFilled != liveSum.OrdersSubmitted {
		t.Fatalf("always-fill live run must fill every order: %d/%d", liveSum.OrdersFilled, liveSum.OrdersSubmitted)
	}

	// Decision layer is identical: same verdicts for the same candidates,
	// same intents modulo client IDs, same submission order.
	for i := range liveSum.Decisions {
		lv, dv := liveSum.Decisions[i].Verdict, drySum.Decisions[i].Verdict
		if lv != dv {
			t.Fatalf("decision %d verdict diverges: live %+v, dry %+v", i, lv, dv)
		}
		lo, do := liveSum.Decisions[i].Outcomes, drySum.Decisions[i].Outcomes
		if len(lo) != len(do) {
			t.Fatalf("decision %d outcome count diverges: %d vs %d", i, len(lo), len(do))
		}
		for j := range lo {
			li, di := lo[j].Intent, do[j].Intent
			if li.Ticker != di.Ticker || li.Side != di.Side || li.Count != di.Count ||
				li.TIF != di.TIF || !li.LimitPrice.Equal(di.LimitPrice) {
				t.Fatalf("decision %d leg %d intent diverges: %+v vs %+v", i, j, li, di)
			}
		}
	}
}

func TestDriverTransportErrorAbortsRun(t *testing.T) {
	// Fill the first pair (both legs), then fail transport on the next
	// qualifying market.
	sub := &failAfterSubmitter{n: 2}
	driver, err := NewDriver(sub, domain.DefaultPolicy(), domain.ModeLive, discardLogger())
	if err != nil {
		t.Fatalf("NewDriver() error: %v", err)
	}

	summary, err := driver.Run(context.Background(), testCandidates(t), nil)
	if err == nil {
		t.Fatal("Run() = nil error, want transport failure")
	}
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error %v does not wrap ErrTransport", err)
	}

	// Candidates after the failure are not evaluated.
	if summary.Considered >= 6 {
		t.Fatalf("considered = %d, want run aborted before the tail", summary.Considered)
	}
	// The already-submitted pair stands.
	if summary.OrdersFilled != 2 {
		t.Fatalf("orders filled before abort = %d, want 2", summary.OrdersFilled)
	}
	if summary.Err == "" {
		t.Fatal("summary must carry the abort error for reporting")
	}
}

func TestNewDriverRejectsInvalidPolicy(t *testing.T) {
	policy := domain.DefaultPolicy()
	policy.FastCloseBandLow = decimal.RequireFromString("0.97")
	policy.FastCloseBandHigh = decimal.RequireFromString("0.90")

	if _, err := NewDriver(&fixedSubmitter{}, policy, domain.ModeDryRun, discardLogger()); err == nil {
		t.Fatal("NewDriver() accepted an inverted band, want error")
	}

	policy = domain.DefaultPolicy()
	policy.CombinedMaxPrice = decimal.Zero
	if _, err := NewDriver(&fixedSubmitter{}, policy, domain.ModeDryRun, discardLogger()); err == nil {
		t.Fatal("NewDriver() accepted a non-positive ceiling, want error")
	}
}
