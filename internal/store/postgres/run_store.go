package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
)

// RunStore persists run summaries and their per-market decisions. It is a
// write-only audit sink; nothing in the decision path reads it back.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a RunStore backed by the given connection pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// RecordRun inserts the run row and one row per decision in a single
// transaction.
func (s *RunStore) RecordRun(ctx context.Context, summary domain.RunSummary) error {
	skippedJSON, err := json.Marshal(summary.SkippedByReason)
	if err != nil {
		return fmt.Errorf("postgres: marshal skip counts: %w", err)
	}
	var refsJSON []byte
	if len(summary.References) > 0 {
		refsJSON, err = json.Marshal(summary.References)
		if err != nil {
			return fmt.Errorf("postgres: marshal references: %w", err)
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin record run: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertRun = `
		INSERT INTO runs (
			run_id, mode, started_at, finished_at,
			considered, qualified,
			orders_submitted, orders_filled, orders_rejected, orders_simulated,
			skipped_by_reason, refs, err
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULLIF($13, ''))`
	_, err = tx.Exec(ctx, insertRun,
		summary.RunID, string(summary.Mode), summary.StartedAt, summary.FinishedAt,
		summary.Considered, summary.Qualified,
		summary.OrdersSubmitted, summary.OrdersFilled, summary.OrdersRejected, summary.OrdersSimulated,
		skippedJSON, refsJSON, summary.Err,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert run %s: %w", summary.RunID, err)
	}

	if len(summary.Decisions) > 0 {
		rows := make([][]any, 0, len(summary.Decisions))
		for _, d := range summary.Decisions {
			detail, err := json.Marshal(d)
			if err != nil {
				return fmt.Errorf("postgres: marshal decision %s: %w", d.Ticker, err)
			}
			rows = append(rows, []any{
				summary.RunID, d.Ticker, d.Verdict.Qualified, string(d.Verdict.Reason),
				d.SecondsToClose, detail,
			})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"run_decisions"},
			[]string{"run_id", "ticker", "qualified", "reason", "seconds_to_close", "detail"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("postgres: insert decisions for run %s: %w", summary.RunID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit run %s: %w", summary.RunID, err)
	}
	return nil
}
