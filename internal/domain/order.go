package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side indicates which outcome of a binary market an order buys.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// OrderIntent is a single planned buy order for one leg of the paired
// strategy. Intents are only ever created in pairs through NewOrderPair.
type OrderIntent struct {
	// ID is a client-generated UUID carried through to the outcome for audit.
	ID     string
	Ticker string
	Side   Side

	// LimitPrice is the quoted ask for this side, in dollars.
	LimitPrice decimal.Decimal
	Count      int64
	TIF        TimeInForce
}

// OrderPair is the structural pairing of the strategy: one YES leg and one NO
// leg for the same market, always submitted together. The pairing is enforced
// by construction; there is no single-leg order path.
type OrderPair struct {
	Yes OrderIntent
	No  OrderIntent
}

// NewOrderPair builds the paired buy intents for a qualifying quote. Both
// legs copy the policy's count and time-in-force; each leg is priced at its
// own side's ask.
func NewOrderPair(quote Quote, policy Policy) OrderPair {
	return OrderPair{
		Yes: OrderIntent{
			ID:         uuid.New().String(),
			Ticker:     quote.Ticker,
			Side:       SideYes,
			LimitPrice: quote.YesAsk.Decimal,
			Count:      policy.OrderCount,
			TIF:        policy.TimeInForce,
		},
		No: OrderIntent{
			ID:         uuid.New().String(),
			Ticker:     quote.Ticker,
			Side:       SideNo,
			LimitPrice: quote.NoAsk.Decimal,
			Count:      policy.OrderCount,
			TIF:        policy.TimeInForce,
		},
	}
}

// Intents returns the legs in submission order, YES then NO.
func (p OrderPair) Intents() []OrderIntent {
	return []OrderIntent{p.Yes, p.No}
}

// OutcomeStatus tags the result of submitting one intent.
type OutcomeStatus string

const (
	OutcomeFilled        OutcomeStatus = "filled"
	OutcomeRejected      OutcomeStatus = "rejected"
	OutcomeSimulatedFill OutcomeStatus = "simulated_fill"
)

// OrderOutcome is the per-leg submission result. It carries the originating
// intent for audit.
type OrderOutcome struct {
	Intent  OrderIntent
	Status  OutcomeStatus
	OrderID string
	// Message holds the exchange's rejection reason when Status is rejected.
	Message string
}
