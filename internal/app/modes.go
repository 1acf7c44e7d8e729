package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/kalshi15m/internal/domain"
	"github.com/alanyoungcy/kalshi15m/internal/engine"
	"github.com/alanyoungcy/kalshi15m/internal/notify"
	"github.com/alanyoungcy/kalshi15m/internal/platform/kalshi"
	"github.com/alanyoungcy/kalshi15m/internal/report"
)

// watchRefreshInterval is how often watch mode re-runs discovery to pick up
// freshly listed 15-minute markets.
const watchRefreshInterval = 5 * time.Minute

// ScanMode runs one full pass: discover candidates, fetch reference prices,
// evaluate and execute, then report and persist the summary. The process
// exits when the pass completes.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	if err := a.checkExchangeOpen(ctx, deps); err != nil {
		return err
	}

	refs := a.scanReferences(ctx, deps)

	driver, err := engine.NewDriver(deps.Submitter, deps.Policy, deps.Mode, a.logger)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	candidates, err := deps.Supplier.Quotes(ctx)
	if err != nil {
		a.notifyError(ctx, deps, fmt.Errorf("scan mode: discover candidates: %w", err))
		return fmt.Errorf("scan mode: discover candidates: %w", err)
	}
	a.logger.InfoContext(ctx, "discovered candidates", slog.Int("count", len(candidates)))

	summary, runErr := driver.Run(ctx, candidates, refs)
	a.finishRun(ctx, deps, summary, runErr)
	return runErr
}

// WatchMode subscribes to the ticker stream for discovered markets and
// re-evaluates each market as its asks move. Each ticker is traded at most
// once per process; live transport errors abort the watch.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting watch mode")

	if err := a.checkExchangeOpen(ctx, deps); err != nil {
		return err
	}

	candidates, err := deps.Supplier.Quotes(ctx)
	if err != nil {
		return fmt.Errorf("watch mode: discover candidates: %w", err)
	}
	if len(candidates) == 0 {
		a.logger.WarnContext(ctx, "watch mode: no candidates discovered, waiting for refresh")
	}

	w := &watcher{
		app:    a,
		deps:   deps,
		coord:  engine.NewCoordinator(deps.Submitter, a.logger),
		quotes: make(map[string]domain.Quote),
		traded: make(map[string]bool),
		evalCh: make(chan domain.Quote, 64),
	}
	w.track(candidates)

	ws := kalshi.NewWSClient(a.cfg.Kalshi.WsURL)
	ws.OnTicker(w.onTicker)
	if err := ws.Connect(ctx); err != nil {
		return fmt.Errorf("watch mode: connect ws: %w", err)
	}
	defer ws.Close()

	if tickers := w.tickers(); len(tickers) > 0 {
		if err := ws.Subscribe(ctx, tickers); err != nil {
			return fmt.Errorf("watch mode: subscribe: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.runEvaluations(ctx)
	})

	// Refresh discovery so newly listed 15-minute markets get subscribed as
	// the current batch closes out.
	g.Go(func() error {
		ticker := time.NewTicker(watchRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				fresh, err := deps.Supplier.Quotes(ctx)
				if err != nil {
					a.logger.WarnContext(ctx, "watch mode: refresh discovery failed",
						slog.String("error", err.Error()),
					)
					continue
				}
				if added := w.track(fresh); len(added) > 0 {
					if err := ws.Subscribe(ctx, added); err != nil {
						a.logger.WarnContext(ctx, "watch mode: subscribe refresh failed",
							slog.String("error", err.Error()),
						)
					}
				}
			}
		}
	})

	return g.Wait()
}

// watcher holds the mutable state of watch mode: the latest quote per ticker
// and the set of tickers already traded this process.
type watcher struct {
	app  *App
	deps *Dependencies

	coord *engine.Coordinator

	mu     sync.Mutex
	quotes map[string]domain.Quote
	traded map[string]bool

	evalCh chan domain.Quote
}

// track adds newly discovered quotes and returns the tickers not seen before.
func (w *watcher) track(candidates []domain.Quote) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var added []string
	for _, q := range candidates {
		if _, ok := w.quotes[q.Ticker]; !ok {
			added = append(added, q.Ticker)
		}
		w.quotes[q.Ticker] = q
	}
	return added
}

// tickers returns every tracked ticker.
func (w *watcher) tickers() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.quotes))
	for t := range w.quotes {
		out = append(out, t)
	}
	return out
}

// onTicker folds a stream update into the tracked quote and queues it for
// evaluation. Runs on the websocket read goroutine, so it never blocks: a
// full queue drops the update and the next tick re-delivers fresher prices.
func (w *watcher) onTicker(u kalshi.TickerUpdate) {
	w.mu.Lock()
	base, ok := w.quotes[u.MarketTicker]
	if !ok || w.traded[u.MarketTicker] {
		w.mu.Unlock()
		return
	}

	if u.YesAsk > 0 {
		base.YesAsk = decimal.NewNullDecimal(decimal.New(u.YesAsk, -2))
	}
	if noAsk := u.NoAskCents(); noAsk > 0 {
		base.NoAsk = decimal.NewNullDecimal(decimal.New(noAsk, -2))
	}
	base.SecondsToClose = int64(time.Until(base.CloseTime) / time.Second)
	w.quotes[u.MarketTicker] = base
	w.mu.Unlock()

	select {
	case w.evalCh <- base:
	default:
	}
}

// runEvaluations drains the evaluation queue, executing the planned pair for
// each qualifying quote. A transport error is fatal and stops the watch.
func (w *watcher) runEvaluations(ctx context.Context) error {
	logger := w.app.logger

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case quote := <-w.evalCh:
			verdict := engine.Evaluate(quote, w.deps.Policy)
			if !verdict.Qualified {
				continue
			}

			w.mu.Lock()
			if w.traded[quote.Ticker] {
				w.mu.Unlock()
				continue
			}
			w.traded[quote.Ticker] = true
			w.mu.Unlock()

			logger.InfoContext(ctx, "watch qualify",
				slog.String("ticker", quote.Ticker),
				slog.String("reason", string(verdict.Reason)),
				slog.Int64("seconds_to_close", quote.SecondsToClose),
			)

			pair, err := engine.PlanPair(quote, verdict, w.deps.Policy)
			if err != nil {
				return fmt.Errorf("watch: plan %s: %w", quote.Ticker, err)
			}

			outcomes, execErr := w.coord.ExecutePair(ctx, pair)
			for _, out := range outcomes {
				if out.Status == domain.OutcomeFilled || out.Status == domain.OutcomeSimulatedFill {
					msg := fmt.Sprintf("%s %s x%d at %s (%s)",
						out.Intent.Ticker, out.Intent.Side, out.Intent.Count,
						out.Intent.LimitPrice.StringFixed(4), out.Status)
					_ = w.deps.Notifier.Notify(ctx, notify.EventOrderFilled, "Kalshi 15m order", msg)
				}
			}
			if execErr != nil {
				w.app.notifyError(ctx, w.deps, execErr)
				return fmt.Errorf("watch: execute %s: %w", quote.Ticker, execErr)
			}
		}
	}
}

// checkExchangeOpen gates live runs on the exchange status endpoint. Dry runs
// proceed regardless so the decision path stays testable off-hours.
func (a *App) checkExchangeOpen(ctx context.Context, deps *Dependencies) error {
	if deps.Mode != domain.ModeLive || !a.cfg.Kalshi.CheckExchange {
		return nil
	}

	status, err := deps.Client.GetExchangeStatus(ctx)
	if err != nil {
		return fmt.Errorf("app: exchange status: %w", err)
	}
	if !status.Open() {
		a.logger.WarnContext(ctx, "exchange is not open for trading",
			slog.Bool("exchange_active", status.ExchangeActive),
			slog.Bool("trading_active", status.TradingActive),
		)
		return fmt.Errorf("app: exchange closed for trading")
	}
	return nil
}

// scanReferences fetches CEX reference prices when enabled. Failures are
// logged and tolerated; reference prices annotate the digest but never gate
// trading. When the scan fails and a cache is wired, the digest falls back
// to the last scanned references still inside their TTL.
func (a *App) scanReferences(ctx context.Context, deps *Dependencies) []domain.AssetReference {
	if deps.RefScanner == nil {
		return nil
	}

	refs, err := deps.RefScanner.Scan(ctx, a.cfg.RefPrice.Assets)
	if err != nil {
		a.logger.WarnContext(ctx, "reference price scan failed",
			slog.String("error", err.Error()),
		)
		return a.cachedReferences(ctx, deps)
	}

	if deps.RefCache != nil {
		if err := deps.RefCache.SetAll(ctx, refs); err != nil {
			a.logger.WarnContext(ctx, "reference price cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return refs
}

// cachedReferences reads the last scanned reference per configured asset.
// Missing or expired entries are simply absent from the result.
func (a *App) cachedReferences(ctx context.Context, deps *Dependencies) []domain.AssetReference {
	if deps.RefCache == nil {
		return nil
	}

	var refs []domain.AssetReference
	for _, asset := range a.cfg.RefPrice.Assets {
		ref, err := deps.RefCache.GetReference(ctx, asset)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				a.logger.WarnContext(ctx, "reference price cache read failed",
					slog.String("asset", asset),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		refs = append(refs, ref)
	}
	if len(refs) > 0 {
		a.logger.InfoContext(ctx, "using cached reference prices",
			slog.Int("count", len(refs)),
		)
	}
	return refs
}

// finishRun reports, persists, and archives a completed run summary. Audit
// failures are logged but never override the run result.
func (a *App) finishRun(ctx context.Context, deps *Dependencies, summary domain.RunSummary, runErr error) {
	a.logger.InfoContext(ctx, "run finished",
		slog.String("run_id", summary.RunID),
		slog.Int("considered", summary.Considered),
		slog.Int("qualified", summary.Qualified),
		slog.Int("orders_submitted", summary.OrdersSubmitted),
		slog.Int("orders_filled", summary.OrdersFilled),
		slog.Bool("error", runErr != nil),
	)

	event := notify.EventRunSummary
	if runErr != nil {
		event = notify.EventRunError
	}
	if err := deps.Notifier.Notify(ctx, event, report.Title(summary), report.Build(summary)); err != nil {
		a.logger.WarnContext(ctx, "run notification failed", slog.String("error", err.Error()))
	}

	if deps.RunStore != nil {
		if err := deps.RunStore.RecordRun(ctx, summary); err != nil {
			a.logger.WarnContext(ctx, "run audit write failed", slog.String("error", err.Error()))
		}
	}
	if deps.Archiver != nil {
		path, err := deps.Archiver.ArchiveRun(ctx, summary)
		if err != nil {
			a.logger.WarnContext(ctx, "run archive failed", slog.String("error", err.Error()))
		} else {
			a.logger.InfoContext(ctx, "run archived", slog.String("path", path))
		}
	}
}

// notifyError pushes a failure notification, best effort.
func (a *App) notifyError(ctx context.Context, deps *Dependencies, err error) {
	_ = deps.Notifier.Notify(ctx, notify.EventRunError, "Kalshi 15m bot error", err.Error())
}
