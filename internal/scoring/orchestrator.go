package scoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
	"github.com/wonny/funddash/pkg/metrics"
)

// RunOptions configures one scoring run.
type RunOptions struct {
	MaxTickers int           // 0 = all active tickers
	TimeBudget time.Duration // 0 = unlimited
	Force      bool          // recompute even when today's record is complete
	Workers    int
	Date       time.Time // calculation date; zero = today UTC
}

// tickerResult classifies one processed ticker for the run summary.
type tickerResult struct {
	ticker string
	class  string // success, partial, failed, skipped
	err    error
}

// Orchestrator coordinates the three score computers across a prioritized
// ticker list with a bounded worker pool and a wall-clock time budget.
// The budget check is cooperative: it gates dispatching new tickers, so a
// run can overshoot by at most one ticker's worst-case duration.
type Orchestrator struct {
	technical   *TechnicalComputer
	fundamental *FundamentalComputer
	analyst     *AnalystComputer

	scoreRepo        contracts.ScoreRepository
	marketRepo       contracts.MarketDataRepository
	fundamentalsRepo contracts.FundamentalsRepository
	earningsRepo     contracts.EarningsRepository
	tickerRepo       contracts.TickerRepository

	metrics *metrics.Recorder
	logger  *logger.Logger

	now func() time.Time // injectable for tests
}

// NewOrchestrator creates a new orchestrator. metrics may be nil.
func NewOrchestrator(
	technical *TechnicalComputer,
	fundamental *FundamentalComputer,
	analyst *AnalystComputer,
	scoreRepo contracts.ScoreRepository,
	marketRepo contracts.MarketDataRepository,
	fundamentalsRepo contracts.FundamentalsRepository,
	earningsRepo contracts.EarningsRepository,
	tickerRepo contracts.TickerRepository,
	rec *metrics.Recorder,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		technical:        technical,
		fundamental:      fundamental,
		analyst:          analyst,
		scoreRepo:        scoreRepo,
		marketRepo:       marketRepo,
		fundamentalsRepo: fundamentalsRepo,
		earningsRepo:     earningsRepo,
		tickerRepo:       tickerRepo,
		metrics:          rec,
		logger:           log.WithField("module", "orchestrator"),
		now:              time.Now,
	}
}

// Run executes a full scoring pass and always returns a summary, even
// under partial failure. Individual ticker failures are counted, logged
// and never abort the run.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*contracts.RunSummary, error) {
	start := o.now()
	date := opts.Date
	if date.IsZero() {
		date = utcDay(start)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	summary := &contracts.RunSummary{
		State:     contracts.RunPending,
		StartedAt: start,
	}

	tickers, err := o.tickerRepo.GetActiveTickers(ctx)
	if err != nil {
		return summary, fmt.Errorf("get active tickers: %w", err)
	}

	ordered := o.prioritize(ctx, tickers, start)
	if opts.MaxTickers > 0 && len(ordered) > opts.MaxTickers {
		ordered = ordered[:opts.MaxTickers]
	}

	o.logger.WithFields(map[string]interface{}{
		"tickers": len(ordered),
		"workers": workers,
		"budget":  opts.TimeBudget,
		"force":   opts.Force,
		"date":    date.Format("2006-01-02"),
	}).Info("Starting scoring run")

	summary.State = contracts.RunInProgress

	tickerCh := make(chan string)
	resultCh := make(chan tickerResult, len(ordered))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tk := range tickerCh {
				resultCh <- o.processOne(ctx, tk, date, opts.Force)
			}
		}()
	}

	// Dispatch from this goroutine so the budget check happens between
	// work units; in-flight tickers are allowed to finish.
	timedOut := false
dispatch:
	for _, tk := range ordered {
		if opts.TimeBudget > 0 && o.now().Sub(start) >= opts.TimeBudget {
			timedOut = true
			break
		}
		select {
		case tickerCh <- tk:
		case <-ctx.Done():
			timedOut = true
			break dispatch
		}
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for res := range resultCh {
		switch res.class {
		case "success":
			summary.Succeeded++
		case "partial":
			summary.Partial++
		case "skipped":
			summary.Skipped++
		default:
			summary.Failed++
			o.logger.WithError(res.err).WithField("ticker", res.ticker).
				Warn("Ticker scoring failed")
		}
		if o.metrics != nil {
			o.metrics.RecordTickerScored(res.class)
		}
	}

	summary.Elapsed = o.now().Sub(start)
	if timedOut {
		summary.State = contracts.RunTimedOut
	} else {
		summary.State = contracts.RunCompleted
	}
	if o.metrics != nil {
		o.metrics.RecordRunDuration(summary.Elapsed.Seconds())
	}

	o.logger.WithFields(map[string]interface{}{
		"state":     string(summary.State),
		"succeeded": summary.Succeeded,
		"partial":   summary.Partial,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"elapsed":   summary.Elapsed,
	}).Info("Scoring run finished")

	return summary, nil
}

// ProcessTicker scores a single ticker for the given date, unconditionally.
// This is the single-ticker entry point used by the CLI.
func (o *Orchestrator) ProcessTicker(ctx context.Context, ticker string, date time.Time) (*contracts.ScoreRecord, error) {
	if date.IsZero() {
		date = utcDay(o.now())
	}

	record := o.computeRecord(ctx, ticker, date)
	if err := o.upsertWithRetry(ctx, record); err != nil {
		return record, fmt.Errorf("store scores for %s: %w", ticker, err)
	}
	return record, nil
}

// prioritize orders tickers by ascending days until next earnings,
// unknown dates last. The sort is stable so equal-priority tickers keep
// input order and runs stay deterministic.
func (o *Orchestrator) prioritize(ctx context.Context, tickers []string, now time.Time) []string {
	dates, err := o.earningsRepo.GetNextEarningsDates(ctx, tickers)
	if err != nil {
		o.logger.WithError(err).Warn("Earnings dates unavailable, keeping input order")
		return tickers
	}

	const unknown = 1 << 30
	days := func(tk string) int {
		d, ok := dates[tk]
		if !ok {
			return unknown
		}
		n := int(d.Sub(now).Hours() / 24)
		if n < 0 {
			n = 0
		}
		return n
	}

	ordered := make([]string, len(tickers))
	copy(ordered, tickers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return days(ordered[i]) < days(ordered[j])
	})
	return ordered
}

// processOne scores one ticker, honoring the skip rule on non-forced runs.
func (o *Orchestrator) processOne(ctx context.Context, ticker string, date time.Time, force bool) tickerResult {
	if !force {
		current, err := o.scoreRepo.GetCurrent(ctx, ticker)
		if err == nil && current != nil &&
			utcDay(current.CalculationDate).Equal(utcDay(date)) && current.AllSuccess() {
			return tickerResult{ticker: ticker, class: "skipped"}
		}
	}

	record := o.computeRecord(ctx, ticker, date)

	if err := o.upsertWithRetry(ctx, record); err != nil {
		return tickerResult{ticker: ticker, class: "failed", err: err}
	}

	switch {
	case record.AllSuccess():
		return tickerResult{ticker: ticker, class: "success"}
	case record.TechnicalResult.Status == contracts.StatusFailed &&
		record.FundamentalResult.Status == contracts.StatusFailed &&
		record.AnalystResult.Status == contracts.StatusFailed:
		return tickerResult{ticker: ticker, class: "failed",
			err: fmt.Errorf("all domains failed for %s", ticker)}
	default:
		return tickerResult{ticker: ticker, class: "partial"}
	}
}

// computeRecord runs the three domain computers independently and merges
// their outputs. A failed input fetch degrades that domain only.
func (o *Orchestrator) computeRecord(ctx context.Context, ticker string, date time.Time) *contracts.ScoreRecord {
	record := &contracts.ScoreRecord{
		Ticker:          ticker,
		CalculationDate: utcDay(date),
		UpdatedAt:       o.now(),
	}

	techIn, err := o.marketRepo.GetTechnicalInputs(ctx, ticker, date)
	if err != nil {
		techIn = nil
	}
	record.Technical, record.TechnicalResult = o.technical.Compute(techIn)

	fundIn, err := o.fundamentalsRepo.GetFundamentalInputs(ctx, ticker, date)
	if err != nil {
		fundIn = nil
	}
	record.Fundamental, record.FundamentalResult = o.fundamental.Compute(fundIn)

	anIn, err := o.earningsRepo.GetAnalystInputs(ctx, ticker)
	if err != nil {
		anIn = nil
	}
	record.Analyst, record.AnalystResult = o.analyst.Compute(anIn)

	record.CompositeScore = record.Composite()
	return record
}

// upsertWithRetry retries a failed store write once with a fresh attempt.
func (o *Orchestrator) upsertWithRetry(ctx context.Context, record *contracts.ScoreRecord) error {
	if err := o.scoreRepo.Upsert(ctx, record); err != nil {
		o.logger.WithError(err).WithField("ticker", record.Ticker).
			Warn("Upsert failed, retrying once")
		return o.scoreRepo.Upsert(ctx, record)
	}
	return nil
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
