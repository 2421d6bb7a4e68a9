package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wonny/funddash/internal/contracts"
)

// In-memory fakes for the repository interfaces.

type fakeScoreStore struct {
	mu        sync.Mutex
	current   map[string]*contracts.ScoreRecord
	upserts   int
	failTimes int // fail the first N upsert attempts
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{current: make(map[string]*contracts.ScoreRecord)}
}

func (f *fakeScoreStore) Upsert(ctx context.Context, record *contracts.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.failTimes > 0 {
		f.failTimes--
		return errors.New("constraint violation")
	}
	f.current[record.Ticker] = record
	return nil
}

func (f *fakeScoreStore) GetCurrent(ctx context.Context, ticker string) (*contracts.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.current[ticker]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func (f *fakeScoreStore) GetHistorical(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.ScoreRecord, error) {
	return nil, nil
}

func (f *fakeScoreStore) Prune(ctx context.Context, daysToKeep int) (int64, error) {
	return 0, nil
}

func (f *fakeScoreStore) DomainSuccessRates(ctx context.Context, date time.Time) (map[string]float64, error) {
	return nil, nil
}

type fakeMarketRepo struct {
	inputs map[string]*contracts.TechnicalInputs
	delay  time.Duration
}

func (f *fakeMarketRepo) GetTechnicalInputs(ctx context.Context, ticker string, date time.Time) (*contracts.TechnicalInputs, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	in, ok := f.inputs[ticker]
	if !ok {
		return nil, errors.New("no data")
	}
	return in, nil
}

func (f *fakeMarketRepo) SaveIndicators(ctx context.Context, inputs *contracts.TechnicalInputs) error {
	return nil
}

type fakeFundamentalsRepo struct {
	inputs map[string]*contracts.FundamentalInputs
}

func (f *fakeFundamentalsRepo) GetFundamentalInputs(ctx context.Context, ticker string, date time.Time) (*contracts.FundamentalInputs, error) {
	in, ok := f.inputs[ticker]
	if !ok {
		return nil, errors.New("no data")
	}
	return in, nil
}

func (f *fakeFundamentalsRepo) SaveFundamentals(ctx context.Context, inputs *contracts.FundamentalInputs) error {
	return nil
}

type fakeEarningsRepo struct {
	inputs map[string]*contracts.AnalystInputs
	dates  map[string]time.Time
}

func (f *fakeEarningsRepo) GetAnalystInputs(ctx context.Context, ticker string) (*contracts.AnalystInputs, error) {
	in, ok := f.inputs[ticker]
	if !ok {
		return nil, errors.New("no data")
	}
	return in, nil
}

func (f *fakeEarningsRepo) GetNextEarningsDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return f.dates, nil
}

func (f *fakeEarningsRepo) SaveAnalystInputs(ctx context.Context, inputs *contracts.AnalystInputs) error {
	return nil
}

type fakeTickerRepo struct {
	tickers []string
}

func (f *fakeTickerRepo) GetActiveTickers(ctx context.Context) ([]string, error) {
	return f.tickers, nil
}

type testEnv struct {
	store    *fakeScoreStore
	market   *fakeMarketRepo
	funds    *fakeFundamentalsRepo
	earnings *fakeEarningsRepo
	tickers  *fakeTickerRepo
	orch     *Orchestrator
}

func newTestEnv(tickers ...string) *testEnv {
	log := testLog()
	env := &testEnv{
		store:    newFakeScoreStore(),
		market:   &fakeMarketRepo{inputs: make(map[string]*contracts.TechnicalInputs)},
		funds:    &fakeFundamentalsRepo{inputs: make(map[string]*contracts.FundamentalInputs)},
		earnings: &fakeEarningsRepo{inputs: make(map[string]*contracts.AnalystInputs), dates: map[string]time.Time{}},
		tickers:  &fakeTickerRepo{tickers: tickers},
	}
	env.orch = NewOrchestrator(
		NewTechnicalComputer(log),
		NewFundamentalComputer(log),
		NewAnalystComputer(log),
		env.store, env.market, env.funds, env.earnings, env.tickers,
		nil, log,
	)
	return env
}

// seedFull gives a ticker complete inputs in all three domains.
func (e *testEnv) seedFull(ticker string) {
	tech := fullTechnicalInputs()
	tech.Ticker = ticker
	e.market.inputs[ticker] = tech

	fund := fullFundamentalInputs()
	fund.Ticker = ticker
	e.funds.inputs[ticker] = fund

	an := fullAnalystInputs()
	an.Ticker = ticker
	e.earnings.inputs[ticker] = an
}

func TestRun_AllSucceed(t *testing.T) {
	env := newTestEnv("AAPL", "MSFT", "GOOG")
	for _, tk := range []string{"AAPL", "MSFT", "GOOG"} {
		env.seedFull(tk)
	}

	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 2})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.State != contracts.RunCompleted {
		t.Errorf("state = %s, want completed", summary.State)
	}
	if summary.Succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", summary.Succeeded)
	}
	if summary.Total() != 3 {
		t.Errorf("total = %d, want 3", summary.Total())
	}
	if len(env.store.current) != 3 {
		t.Errorf("stored records = %d, want 3", len(env.store.current))
	}
}

func TestRun_DomainFailureDoesNotAbortTicker(t *testing.T) {
	env := newTestEnv("AAPL")
	env.seedFull("AAPL")
	// Remove analyst data: that domain fails, the others still compute
	delete(env.earnings.inputs, "AAPL")

	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 1})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Partial != 1 {
		t.Errorf("partial = %d, want 1", summary.Partial)
	}

	record := env.store.current["AAPL"]
	if record == nil {
		t.Fatal("record should still be upserted")
	}
	if record.AnalystResult.Status != contracts.StatusFailed {
		t.Errorf("analyst status = %s, want failed", record.AnalystResult.Status)
	}
	if record.TechnicalResult.Status != contracts.StatusSuccess {
		t.Errorf("technical status = %s, want success", record.TechnicalResult.Status)
	}
	if record.CompositeScore <= 0 {
		t.Errorf("composite = %v, want positive from surviving domains", record.CompositeScore)
	}
}

func TestRun_SkipsCompleteRecordWhenNotForced(t *testing.T) {
	env := newTestEnv("AAPL")
	env.seedFull("AAPL")

	// Pre-existing complete record for today
	today := utcDay(time.Now())
	env.store.current["AAPL"] = &contracts.ScoreRecord{
		Ticker:            "AAPL",
		CalculationDate:   today,
		TechnicalResult:   contracts.DomainResult{Status: contracts.StatusSuccess},
		FundamentalResult: contracts.DomainResult{Status: contracts.StatusSuccess},
		AnalystResult:     contracts.DomainResult{Status: contracts.StatusSuccess},
	}

	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 1})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", summary.Skipped)
	}
	if env.store.upserts != 0 {
		t.Errorf("upserts = %d, want 0 for a skipped ticker", env.store.upserts)
	}
}

func TestRun_ForceRecomputes(t *testing.T) {
	env := newTestEnv("AAPL")
	env.seedFull("AAPL")

	today := utcDay(time.Now())
	env.store.current["AAPL"] = &contracts.ScoreRecord{
		Ticker:            "AAPL",
		CalculationDate:   today,
		TechnicalResult:   contracts.DomainResult{Status: contracts.StatusSuccess},
		FundamentalResult: contracts.DomainResult{Status: contracts.StatusSuccess},
		AnalystResult:     contracts.DomainResult{Status: contracts.StatusSuccess},
	}

	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 1, Force: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Skipped != 0 {
		t.Errorf("skipped = %d, want 0 on forced run", summary.Skipped)
	}
	if summary.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", summary.Succeeded)
	}
	if env.store.upserts == 0 {
		t.Error("forced run should upsert")
	}
}

func TestRun_TimeBudgetStopsDispatch(t *testing.T) {
	env := newTestEnv("A", "B", "C", "D", "E", "F", "G", "H")
	for _, tk := range env.tickers.tickers {
		env.seedFull(tk)
	}
	env.market.delay = 30 * time.Millisecond

	summary, err := env.orch.Run(context.Background(), RunOptions{
		Workers:    1,
		TimeBudget: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.State != contracts.RunTimedOut {
		t.Errorf("state = %s, want timed_out", summary.State)
	}
	if summary.Total() >= len(env.tickers.tickers) {
		t.Errorf("processed %d tickers, budget should have cut the run short", summary.Total())
	}
}

func TestRun_EarningsProximityOrdersQueue(t *testing.T) {
	env := newTestEnv("LATE", "SOON", "UNKNOWN")
	for _, tk := range env.tickers.tickers {
		env.seedFull(tk)
	}
	now := time.Now()
	env.earnings.dates = map[string]time.Time{
		"LATE": now.Add(40 * 24 * time.Hour),
		"SOON": now.Add(2 * 24 * time.Hour),
	}

	// MaxTickers=1 with one worker: only the highest-priority ticker runs
	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 1, MaxTickers: 1})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Total() != 1 {
		t.Fatalf("total = %d, want 1", summary.Total())
	}
	if _, ok := env.store.current["SOON"]; !ok {
		t.Error("the ticker with the nearest earnings date should be processed first")
	}
}

func TestRun_UpsertRetriesOnce(t *testing.T) {
	env := newTestEnv("AAPL")
	env.seedFull("AAPL")
	env.store.failTimes = 1 // first attempt fails, retry succeeds

	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 1})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1 after retry", summary.Succeeded)
	}
	if env.store.upserts != 2 {
		t.Errorf("upsert attempts = %d, want 2", env.store.upserts)
	}
}

func TestRun_UpsertFailureCountsTickerFailed(t *testing.T) {
	env := newTestEnv("AAPL")
	env.seedFull("AAPL")
	env.store.failTimes = 2 // both attempts fail

	summary, err := env.orch.Run(context.Background(), RunOptions{Workers: 1})
	if err != nil {
		t.Fatalf("Run() should not error, got %v", err)
	}

	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
}

func TestProcessTicker(t *testing.T) {
	env := newTestEnv("AAPL")
	env.seedFull("AAPL")

	record, err := env.orch.ProcessTicker(context.Background(), "AAPL", time.Time{})
	if err != nil {
		t.Fatalf("ProcessTicker() failed: %v", err)
	}

	if !record.AllSuccess() {
		t.Errorf("record status = %+v, want all success", record)
	}
	if record.CompositeScore <= 0 || record.CompositeScore > 100 {
		t.Errorf("composite = %v, out of range", record.CompositeScore)
	}
	if _, ok := env.store.current["AAPL"]; !ok {
		t.Error("ProcessTicker should persist the record")
	}
}
