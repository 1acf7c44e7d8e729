package domain

// Reason is the closed set of qualification and skip causes produced by the
// evaluator. Skip reasons exist for decision logging only; nothing branches
// on them downstream.
type Reason string

const (
	QualifyCombinedPrice Reason = "combined_price"
	QualifyFastCloseBand Reason = "fast_close_band"

	SkipNoQuote                Reason = "no_quote"
	SkipAlreadyClosed          Reason = "already_closed"
	SkipCombinedPriceTooHigh   Reason = "combined_price_too_high"
	SkipOutsideFastCloseWindow Reason = "outside_fast_close_window"
)

// Verdict is the terminal classification of one (Quote, Policy) evaluation.
// It is never mutated after creation.
type Verdict struct {
	Qualified bool
	Reason    Reason
}

// Qualify builds a qualifying verdict.
func Qualify(reason Reason) Verdict {
	return Verdict{Qualified: true, Reason: reason}
}

// Skip builds a non-qualifying verdict.
func Skip(reason Reason) Verdict {
	return Verdict{Qualified: false, Reason: reason}
}
