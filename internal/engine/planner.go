package engine

import (
	"fmt"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// PlanPair turns a qualifying verdict into the paired buy intents: one YES
// leg and one NO leg, both at the policy's count and time-in-force. Calling
// it with a skip verdict is a programming error and returns an error rather
// than a partial plan.
func PlanPair(quote domain.Quote, verdict domain.Verdict, policy domain.Policy) (domain.OrderPair, error) {
	if !verdict.Qualified {
		return domain.OrderPair{}, fmt.Errorf("engine: plan called with skip verdict %q for %s", verdict.Reason, quote.Ticker)
	}
	return domain.NewOrderPair(quote, policy), nil
}
