package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// OrderSubmitter is the interface through which the coordinator submits
// orders to the exchange. The live Kalshi client and the dry-run simulator
// both implement it, so the coordinator's sequencing is identical in both
// modes.
//
// A returned error means the exchange could not be reached at all (transport
// or auth failure) and is fatal to the run. An order-level business rejection
// is NOT an error: it comes back as an outcome with status rejected.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderOutcome, error)
}

// Coordinator sequences a pair's legs against the submitter, YES then NO.
// Submission is deliberately sequential, not concurrent: it keeps a clear
// happens-before audit trail and respects per-account ordering rules on the
// exchange side.
type Coordinator struct {
	submitter OrderSubmitter
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator that submits through the given
// submitter.
func NewCoordinator(submitter OrderSubmitter, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		submitter: submitter,
		logger:    logger.With(slog.String("component", "coordinator")),
	}
}

// ExecutePair submits both legs in order and returns the per-leg outcomes.
// A rejected YES leg does not stop the NO leg; the strategy accepts the
// partial-fill risk and the rejection is surfaced in the outcome list. A
// transport error stops immediately and returns the outcomes collected so
// far together with the error.
func (c *Coordinator) ExecutePair(ctx context.Context, pair domain.OrderPair) ([]domain.OrderOutcome, error) {
	outcomes := make([]domain.OrderOutcome, 0, 2)

	for _, intent := range pair.Intents() {
		outcome, err := c.submitter.SubmitOrder(ctx, intent)
		if err != nil {
			return outcomes, fmt.Errorf("engine: submit %s %s: %w", intent.Ticker, intent.Side, err)
		}

		switch outcome.Status {
		case domain.OutcomeRejected:
			c.logger.Warn("order rejected",
				slog.String("ticker", intent.Ticker),
				slog.String("side", string(intent.Side)),
				slog.String("message", outcome.Message),
			)
		default:
			c.logger.Info("order submitted",
				slog.String("ticker", intent.Ticker),
				slog.String("side", string(intent.Side)),
				slog.String("order_id", outcome.OrderID),
				slog.String("status", string(outcome.Status)),
			)
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
