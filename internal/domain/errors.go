package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport marks a failure to reach the exchange at all, as opposed
	// to an order-level rejection. Transport failures abort the remainder of
	// a run.
	ErrTransport = errors.New("exchange transport failure")

	// ErrOrderRejected marks an exchange-level business rejection of a single
	// order. Rejections are folded into the run summary, never fatal.
	ErrOrderRejected = errors.New("order rejected")

	// ErrExchangeInactive is returned by the pre-run status gate when the
	// exchange reports trading halted.
	ErrExchangeInactive = errors.New("exchange not active")
)
