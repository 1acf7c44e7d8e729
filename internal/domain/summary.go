package domain

import "time"

// Mode selects between live submission and dry-run simulation.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeDryRun Mode = "dry_run"
)

// DecisionRecord is one market's evaluation result, kept for the run digest
// and the audit store.
type DecisionRecord struct {
	Ticker         string         `json:"ticker"`
	Title          string         `json:"title"`
	YesAsk         string         `json:"yes_ask,omitempty"`
	NoAsk          string         `json:"no_ask,omitempty"`
	SecondsToClose int64          `json:"seconds_to_close"`
	Verdict        Verdict        `json:"verdict"`
	Outcomes       []OrderOutcome `json:"outcomes,omitempty"`
}

// RunSummary aggregates one scan pass. It is created at run start, folded
// incrementally by the run driver, and handed to the reporting sinks at run
// end; it is never read back by a later run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Mode       Mode      `json:"mode"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Considered      int            `json:"considered"`
	Qualified       int            `json:"qualified"`
	SkippedByReason map[Reason]int `json:"skipped_by_reason"`

	OrdersSubmitted int `json:"orders_submitted"`
	OrdersFilled    int `json:"orders_filled"`
	OrdersRejected  int `json:"orders_rejected"`
	OrdersSimulated int `json:"orders_simulated"`

	Decisions []DecisionRecord `json:"decisions"`

	// References holds the CEX reference prices observed for this run, when
	// the reference scan is enabled.
	References []AssetReference `json:"references,omitempty"`

	// Err is the message of the transport error that aborted the run, if any.
	// Orders submitted before the abort stand and are counted above.
	Err string `json:"err,omitempty"`
}

// RecordSkip folds a non-qualifying decision into the summary.
func (s *RunSummary) RecordSkip(rec DecisionRecord) {
	s.Considered++
	if s.SkippedByReason == nil {
		s.SkippedByReason = make(map[Reason]int)
	}
	s.SkippedByReason[rec.Verdict.Reason]++
	s.Decisions = append(s.Decisions, rec)
}

// RecordQualify folds a qualifying decision and its order outcomes into the
// summary.
func (s *RunSummary) RecordQualify(rec DecisionRecord) {
	s.Considered++
	s.Qualified++
	for _, out := range rec.Outcomes {
		s.OrdersSubmitted++
		switch out.Status {
		case OutcomeFilled:
			s.OrdersFilled++
		case OutcomeRejected:
			s.OrdersRejected++
		case OutcomeSimulatedFill:
			s.OrdersSimulated++
		}
	}
	s.Decisions = append(s.Decisions, rec)
}
