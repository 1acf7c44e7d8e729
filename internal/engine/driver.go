package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// Driver runs one scan pass: it walks the supplier's candidates in order,
// evaluates each, and executes the planned pair for every qualifying market.
// The decision layer is deterministic for a given candidate sequence and
// policy; only live execution outcomes depend on external market state.
type Driver struct {
	coord  *Coordinator
	policy domain.Policy
	mode   domain.Mode
	logger *slog.Logger
}

// NewDriver creates a Driver. It validates the policy up front and refuses
// to construct with an invalid one, so no candidate is ever evaluated against
// a broken configuration.
func NewDriver(submitter OrderSubmitter, policy domain.Policy, mode domain.Mode, logger *slog.Logger) (*Driver, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Driver{
		coord:  NewCoordinator(submitter, logger),
		policy: policy,
		mode:   mode,
		logger: logger.With(slog.String("component", "driver")),
	}, nil
}

// Policy returns the policy the driver was constructed with.
func (d *Driver) Policy() domain.Policy {
	return d.policy
}

// Run processes the candidate sequence in supplier order, never reordering or
// deduplicating. Skips are recorded with their reason; qualifying markets are
// planned and executed through the coordinator. A transport error aborts the
// remaining candidates; orders already submitted stand and the partial
// summary is still returned for reporting.
func (d *Driver) Run(ctx context.Context, candidates []domain.Quote, refs []domain.AssetReference) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		RunID:           uuid.New().String(),
		Mode:            d.mode,
		StartedAt:       time.Now().UTC(),
		SkippedByReason: make(map[domain.Reason]int),
		References:      refs,
	}

	for _, quote := range candidates {
		if err := ctx.Err(); err != nil {
			summary.Err = err.Error()
			summary.FinishedAt = time.Now().UTC()
			return summary, fmt.Errorf("engine: run cancelled: %w", err)
		}

		verdict := Evaluate(quote, d.policy)
		rec := newDecisionRecord(quote, verdict)

		if !verdict.Qualified {
			d.logger.Debug("skip",
				slog.String("ticker", quote.Ticker),
				slog.String("reason", string(verdict.Reason)),
				slog.Int64("seconds_to_close", quote.SecondsToClose),
			)
			summary.RecordSkip(rec)
			continue
		}

		d.logger.Info("qualify",
			slog.String("ticker", quote.Ticker),
			slog.String("reason", string(verdict.Reason)),
			slog.String("yes_ask", rec.YesAsk),
			slog.String("no_ask", rec.NoAsk),
			slog.Int64("seconds_to_close", quote.SecondsToClose),
		)

		pair, err := PlanPair(quote, verdict, d.policy)
		if err != nil {
			// Unreachable by construction; surfaced rather than swallowed.
			summary.Err = err.Error()
			summary.FinishedAt = time.Now().UTC()
			return summary, err
		}

		outcomes, execErr := d.coord.ExecutePair(ctx, pair)
		rec.Outcomes = outcomes
		summary.RecordQualify(rec)

		if execErr != nil {
			summary.Err = execErr.Error()
			summary.FinishedAt = time.Now().UTC()
			return summary, execErr
		}
	}

	summary.FinishedAt = time.Now().UTC()
	return summary, nil
}

// newDecisionRecord snapshots the quote fields the digest and audit store
// need, with asks rendered as fixed four-decimal strings.
func newDecisionRecord(quote domain.Quote, verdict domain.Verdict) domain.DecisionRecord {
	rec := domain.DecisionRecord{
		Ticker:         quote.Ticker,
		Title:          quote.Title,
		SecondsToClose: quote.SecondsToClose,
		Verdict:        verdict,
	}
	if quote.YesAsk.Valid {
		rec.YesAsk = quote.YesAsk.Decimal.StringFixed(4)
	}
	if quote.NoAsk.Valid {
		rec.NoAsk = quote.NoAsk.Decimal.StringFixed(4)
	}
	return rec
}
