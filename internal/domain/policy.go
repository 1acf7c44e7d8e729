package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TimeInForce is the set of order lifetimes accepted by the exchange.
type TimeInForce string

const (
	TIFFillOrKill        TimeInForce = "fill_or_kill"
	TIFImmediateOrCancel TimeInForce = "immediate_or_cancel"
	TIFGoodTillCancelled TimeInForce = "good_till_cancelled"
)

// validTIFs enumerates the accepted values for Policy.TimeInForce.
var validTIFs = map[TimeInForce]bool{
	TIFFillOrKill:        true,
	TIFImmediateOrCancel: true,
	TIFGoodTillCancelled: true,
}

// Policy is the qualification-and-execution configuration snapshot for one
// run. It is built once from config and passed by value into the engine; the
// engine holds no other tunables.
type Policy struct {
	// CombinedMaxPrice is the strict upper bound on YesAsk + NoAsk for the
	// combined-price rule. A sum exactly equal to this threshold does not
	// qualify.
	CombinedMaxPrice decimal.Decimal

	// FastCloseWindowSeconds is the width of the fast-close window. Markets
	// with 0 <= SecondsToClose < this value are eligible for the band rule.
	FastCloseWindowSeconds int64

	// FastCloseBandLow/High bound the inclusive price band for the fast-close
	// rule.
	FastCloseBandLow  decimal.Decimal
	FastCloseBandHigh decimal.Decimal

	// OrderCount is the contract count per leg.
	OrderCount int64

	TimeInForce TimeInForce
}

// DefaultPolicy returns the policy defaults: combined ceiling 1.00, 60 second
// fast-close window, band [0.90, 0.97], one contract per leg, fill-or-kill.
func DefaultPolicy() Policy {
	return Policy{
		CombinedMaxPrice:       decimal.NewFromInt(1),
		FastCloseWindowSeconds: 60,
		FastCloseBandLow:       decimal.RequireFromString("0.90"),
		FastCloseBandHigh:      decimal.RequireFromString("0.97"),
		OrderCount:             1,
		TimeInForce:            TIFFillOrKill,
	}
}

// Validate checks the policy invariants and returns a combined error
// describing every problem found. An invalid policy must stop the run before
// any candidate is evaluated.
func (p Policy) Validate() error {
	var errs []string

	if !p.CombinedMaxPrice.IsPositive() {
		errs = append(errs, fmt.Sprintf("combined_max_price must be > 0, got %s", p.CombinedMaxPrice))
	}
	if p.FastCloseWindowSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("fast_close_window_seconds must be > 0, got %d", p.FastCloseWindowSeconds))
	}
	if p.FastCloseBandLow.GreaterThan(p.FastCloseBandHigh) {
		errs = append(errs, fmt.Sprintf("fast_close_band inverted: low %s > high %s", p.FastCloseBandLow, p.FastCloseBandHigh))
	}
	if p.OrderCount < 1 {
		errs = append(errs, fmt.Sprintf("order_count must be >= 1, got %d", p.OrderCount))
	}
	if !validTIFs[p.TimeInForce] {
		errs = append(errs, fmt.Sprintf("unknown time_in_force %q (valid: fill_or_kill, immediate_or_cancel, good_till_cancelled)", p.TimeInForce))
	}

	if len(errs) > 0 {
		return fmt.Errorf("policy validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// InBand reports whether price lies inside the inclusive fast-close band.
func (p Policy) InBand(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(p.FastCloseBandLow) && price.LessThanOrEqual(p.FastCloseBandHigh)
}
