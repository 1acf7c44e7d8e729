// Package engine implements the qualification-and-execution core: the pure
// evaluator, the paired-order planner, the sequential execution coordinator,
// and the run driver that folds decisions into a run summary.
package engine

import (
	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// Evaluate classifies one quote against the policy. It is pure and total:
// the same quote and policy always produce the same verdict, and every quote
// maps to exactly one of the closed reason set.
//
// Precedence: the fast-close band rule wins over the combined-price ceiling.
// A market inside the window with either ask in the band qualifies even when
// the combined price is far above the ceiling; the band captures near-certain
// outcomes priced at a discount just before settlement.
func Evaluate(quote domain.Quote, policy domain.Policy) domain.Verdict {
	// A market past its close is already-closed even when asks are missing
	// too; closedness is checked before the quote is inspected.
	if quote.SecondsToClose < 0 {
		return domain.Skip(domain.SkipAlreadyClosed)
	}
	if !quote.HasQuote() {
		return domain.Skip(domain.SkipNoQuote)
	}

	inWindow := quote.SecondsToClose < policy.FastCloseWindowSeconds
	inBand := policy.InBand(quote.YesAsk.Decimal) || policy.InBand(quote.NoAsk.Decimal)

	if inWindow && inBand {
		return domain.Qualify(domain.QualifyFastCloseBand)
	}

	// Strict inequality: a combined ask exactly at the ceiling does not
	// qualify.
	if quote.CombinedAsk().LessThan(policy.CombinedMaxPrice) {
		return domain.Qualify(domain.QualifyCombinedPrice)
	}

	if inBand {
		return domain.Skip(domain.SkipOutsideFastCloseWindow)
	}
	return domain.Skip(domain.SkipCombinedPriceTooHigh)
}
