package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/funddash/internal/batch"
	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
)

// Router routes fetch requests across providers. Implemented by
// provider.Router.
type Router interface {
	Route(ctx context.Context, req contracts.FetchRequest) contracts.ProviderResult
	RouteBatch(ctx context.Context, tickers []string, kind contracts.DataKind) contracts.ProviderResult
}

// Config holds collector settings.
type Config struct {
	Workers   int
	BatchSize int // tickers per batch quote call
}

// Result is the per-ticker outcome of a collection pass.
type Result struct {
	Ticker string
	Saved  int // input rows persisted
	Error  error
}

// Collector pulls raw data through the provider router and persists it
// for the scoring pipeline to read.
type Collector struct {
	router       Router
	marketRepo   contracts.MarketDataRepository
	fundamentals contracts.FundamentalsRepository
	earningsRepo contracts.EarningsRepository
	tickerRepo   contracts.TickerRepository
	logger       *logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(
	router Router,
	marketRepo contracts.MarketDataRepository,
	fundamentals contracts.FundamentalsRepository,
	earningsRepo contracts.EarningsRepository,
	tickerRepo contracts.TickerRepository,
	log *logger.Logger,
) *Collector {
	return &Collector{
		router:       router,
		marketRepo:   marketRepo,
		fundamentals: fundamentals,
		earningsRepo: earningsRepo,
		tickerRepo:   tickerRepo,
		logger:       log.WithField("module", "collector"),
	}
}

// CollectAll refreshes quote, fundamentals and analyst data for every
// active ticker. Quotes go through batch calls where a provider offers
// them; the rest is fetched per ticker by a worker pool.
func (c *Collector) CollectAll(ctx context.Context, cfg Config) ([]Result, error) {
	tickers, err := c.tickerRepo.GetActiveTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active tickers: %w", err)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": cfg.Workers,
	}).Info("Starting collection")

	quotes := c.collectQuotes(ctx, tickers, cfg.BatchSize)

	resultCh := make(chan Result, len(tickers))
	tickerCh := make(chan string, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tickerCh {
				resultCh <- c.collectTicker(ctx, ticker, quotes[ticker])
			}
		}()
	}

	for _, ticker := range tickers {
		tickerCh <- ticker
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(tickers))
	failed := 0
	for r := range resultCh {
		results = append(results, r)
		if r.Error != nil {
			failed++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"total":  len(results),
		"failed": failed,
	}).Info("Collection completed")
	return results, nil
}

// collectQuotes fetches quotes in provider-sized batches and falls back
// to per-ticker fetches for any batch that fails outright.
func (c *Collector) collectQuotes(ctx context.Context, tickers []string, batchSize int) map[string]contracts.Payload {
	quotes := make(map[string]contracts.Payload, len(tickers))

	for _, group := range batch.Schedule(tickers, contracts.KindQuote, batchSize) {
		res := c.router.RouteBatch(ctx, group.Tickers, contracts.KindQuote)
		if res.OK() {
			for ticker, payload := range res.Batch {
				quotes[ticker] = payload
			}
			continue
		}

		c.logger.WithFields(map[string]interface{}{
			"group": group.Index,
			"size":  len(group.Tickers),
		}).WithError(res.Err).Warn("Batch quote fetch failed, falling back to singles")

		for _, req := range group.Requests {
			single := c.router.Route(ctx, req)
			if single.OK() {
				quotes[req.Ticker] = single.Payload
			}
		}
	}

	return quotes
}

// collectTicker fetches the per-ticker kinds and persists whatever came
// back. A missing kind is not an error here: the scoring quality gates
// decide what incomplete data means.
func (c *Collector) collectTicker(ctx context.Context, ticker string, quote contracts.Payload) Result {
	now := time.Now().UTC()
	saved := 0

	var indicators contracts.Payload
	if res := c.router.Route(ctx, contracts.FetchRequest{Ticker: ticker, Kind: contracts.KindIndicators}); res.OK() {
		indicators = res.Payload
	}
	if quote != nil || indicators != nil {
		if err := c.marketRepo.SaveIndicators(ctx, mapTechnical(ticker, now, quote, indicators)); err != nil {
			return Result{Ticker: ticker, Saved: saved, Error: fmt.Errorf("save indicators: %w", err)}
		}
		saved++
	}

	if res := c.router.Route(ctx, contracts.FetchRequest{Ticker: ticker, Kind: contracts.KindFinancials}); res.OK() {
		if err := c.fundamentals.SaveFundamentals(ctx, mapFundamentals(ticker, now, res.Payload)); err != nil {
			return Result{Ticker: ticker, Saved: saved, Error: fmt.Errorf("save fundamentals: %w", err)}
		}
		saved++
	}

	if res := c.router.Route(ctx, contracts.FetchRequest{Ticker: ticker, Kind: contracts.KindEarnings}); res.OK() {
		if err := c.earningsRepo.SaveAnalystInputs(ctx, mapAnalyst(ticker, res.Payload, quote)); err != nil {
			return Result{Ticker: ticker, Saved: saved, Error: fmt.Errorf("save analyst inputs: %w", err)}
		}
		saved++
	}

	if saved == 0 {
		return Result{Ticker: ticker, Error: fmt.Errorf("no data collected for %s", ticker)}
	}
	return Result{Ticker: ticker, Saved: saved}
}
