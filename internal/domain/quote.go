package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one market's best ask snapshot at evaluation time. It is a value
// type: the discovery layer constructs it once per scan pass and the engine
// never mutates it.
type Quote struct {
	Ticker      string
	Title       string
	EventTicker string
	CloseTime   time.Time

	// YesAsk and NoAsk are best ask prices in dollars. A market with no
	// resting ask on a side carries an invalid NullDecimal for that side.
	YesAsk decimal.NullDecimal
	NoAsk  decimal.NullDecimal

	// SecondsToClose is negative when the market is already past its close
	// time. Discovery excludes closed markets, but the evaluator still guards
	// against negative values.
	SecondsToClose int64
}

// HasQuote reports whether both sides carry a usable ask price.
func (q Quote) HasQuote() bool {
	return q.YesAsk.Valid && q.NoAsk.Valid
}

// CombinedAsk returns YesAsk + NoAsk. Callers must check HasQuote first.
func (q Quote) CombinedAsk() decimal.Decimal {
	return q.YesAsk.Decimal.Add(q.NoAsk.Decimal)
}
