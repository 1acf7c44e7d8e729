package kalshi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// Simulator is the dry-run order submitter. Every intent fills instantly
// with a synthetic order ID derived from the intent, so the decision and
// sequencing layers behave identically to a live run.
type Simulator struct {
	logger *slog.Logger
}

// NewSimulator creates a dry-run order submitter.
func NewSimulator(logger *slog.Logger) *Simulator {
	return &Simulator{
		logger: logger.With(slog.String("component", "kalshi.simulator")),
	}
}

// SubmitOrder implements the engine order submitter contract. It never
// returns an error.
func (s *Simulator) SubmitOrder(_ context.Context, intent domain.OrderIntent) (domain.OrderOutcome, error) {
	orderID := fmt.Sprintf("dry-%s-%s-%s", intent.Ticker, intent.Side, intent.LimitPrice.StringFixed(4))

	s.logger.Info("simulated order",
		slog.String("ticker", intent.Ticker),
		slog.String("side", string(intent.Side)),
		slog.String("price", intent.LimitPrice.StringFixed(4)),
		slog.Int64("count", intent.Count))

	return domain.OrderOutcome{
		Intent:  intent,
		Status:  domain.OutcomeSimulatedFill,
		OrderID: orderID,
	}, nil
}
