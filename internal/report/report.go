// Package report renders a RunSummary into the run digest delivered to
// notification sinks and the console.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// maxHighlights caps the per-market lines in the digest.
const maxHighlights = 6

// Title returns the digest title line for a run.
func Title(summary domain.RunSummary) string {
	mode := "DRY_RUN"
	if summary.Mode == domain.ModeLive {
		mode = "LIVE"
	}
	return fmt.Sprintf("Kalshi 15m bot run `%s` `%s`", mode, summary.FinishedAt.UTC().Format(time.RFC3339))
}

// Build renders the digest body: opportunity count, result, error details on
// failure, reference prices when scanned, and up to maxHighlights per-market
// lines.
func Build(summary domain.RunSummary) string {
	var b strings.Builder

	b.WriteString("*")
	b.WriteString(Title(summary))
	b.WriteString("*")

	fmt.Fprintf(&b, "\nOpportunities: %d (of %d considered)", summary.Qualified, summary.Considered)

	if summary.Err != "" {
		b.WriteString("\nResult: ERROR")
		b.WriteString("\n\n*Error Details*")
		b.WriteString("\n- ")
		b.WriteString(summary.Err)
	} else {
		b.WriteString("\nResult: OK")
	}

	if summary.OrdersSubmitted > 0 {
		fmt.Fprintf(&b, "\nOrders: %d submitted, %d filled, %d rejected, %d simulated",
			summary.OrdersSubmitted, summary.OrdersFilled, summary.OrdersRejected, summary.OrdersSimulated)
	}

	if len(summary.References) > 0 {
		b.WriteString("\n\n*Reference Prices*")
		for _, ref := range summary.References {
			fmt.Fprintf(&b, "\n- %s %.2f (%d venues)", ref.Asset, ref.ReferencePrice, len(ref.Quotes))
		}
	}

	if highlights := formatHighlights(summary.Decisions, maxHighlights); highlights != "" {
		b.WriteString("\n\n*Highlights*")
		b.WriteString(highlights)
	}

	return b.String()
}

// formatHighlights renders one line per decision, qualified markets first,
// truncated to maxItems.
func formatHighlights(decisions []domain.DecisionRecord, maxItems int) string {
	ordered := make([]domain.DecisionRecord, 0, len(decisions))
	for _, d := range decisions {
		if d.Verdict.Qualified {
			ordered = append(ordered, d)
		}
	}
	for _, d := range decisions {
		if !d.Verdict.Qualified {
			ordered = append(ordered, d)
		}
	}

	var b strings.Builder
	count := 0
	for _, d := range ordered {
		if count >= maxItems {
			fmt.Fprintf(&b, "\n- ... and %d more", len(ordered)-count)
			break
		}

		var info []string
		if d.YesAsk != "" && d.NoAsk != "" {
			info = append(info, fmt.Sprintf("YES %s / NO %s", d.YesAsk, d.NoAsk))
		}
		info = append(info, "TTL "+formatTTL(d.SecondsToClose))

		fmt.Fprintf(&b, "\n- *%s* (%s) — %s — *%s*",
			d.Title, d.Ticker, strings.Join(info, " — "), reasonText(d.Verdict))
		count++
	}
	return b.String()
}

// reasonText is the operator-facing wording for a verdict.
func reasonText(v domain.Verdict) string {
	switch v.Reason {
	case domain.QualifyFastCloseBand:
		return "QUALIFY: ask in fast-close band near close"
	case domain.QualifyCombinedPrice:
		return "QUALIFY: combined ask under ceiling"
	case domain.SkipNoQuote:
		return "skip: missing or invalid YES/NO ask"
	case domain.SkipAlreadyClosed:
		return "skip: market already closed"
	case domain.SkipCombinedPriceTooHigh:
		return "skip: combined ask at or above ceiling"
	case domain.SkipOutsideFastCloseWindow:
		return "skip: banded ask outside the fast-close window"
	default:
		return string(v.Reason)
	}
}

func formatTTL(seconds int64) string {
	if seconds < 0 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
}
