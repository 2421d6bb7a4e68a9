package commands

import (
	"fmt"

	"github.com/wonny/funddash/internal/external/alphavantage"
	"github.com/wonny/funddash/internal/external/finnhub"
	"github.com/wonny/funddash/internal/external/fmp"
	"github.com/wonny/funddash/internal/external/polygon"
	"github.com/wonny/funddash/internal/external/yahoo"
	"github.com/wonny/funddash/internal/fetch"
	"github.com/wonny/funddash/internal/provider"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/internal/scoring"
	"github.com/wonny/funddash/internal/store"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/database"
	"github.com/wonny/funddash/pkg/logger"
	"github.com/wonny/funddash/pkg/metrics"
	"github.com/wonny/funddash/pkg/redis"
)

// app holds the wired components shared by the CLI commands.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	metrics *metrics.Recorder

	tracker *quota.Tracker
	router  *provider.Router

	scores       *store.ScoreRepository
	market       *store.MarketDataRepository
	fundamentals *store.FundamentalsRepository
	earnings     *store.EarningsRepository
	tickers      *store.TickerRepository

	collector    *fetch.Collector
	orchestrator *scoring.Orchestrator
}

// newApp loads config and wires the full pipeline. Close() releases the
// connections.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	var rec *metrics.Recorder
	if cfg.MetricsEnabled {
		rec = metrics.New()
	}

	tracker := quota.New(quota.RealClock(), redis.NewDayCounter(rdb, "funddash"), log)

	var providers []provider.Provider
	for _, p := range buildProviders(cfg, log) {
		tracker.Register(p.Name(), p.Limits())
		providers = append(providers, p)
	}

	registry := provider.NewRegistry(providers, cfg.Scoring.ProviderPriority)
	router := provider.NewRouter(registry, tracker, provider.DefaultRouterConfig(), rec, log)

	a := &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redis:        rdb,
		metrics:      rec,
		tracker:      tracker,
		router:       router,
		scores:       store.NewScoreRepository(db.Pool),
		market:       store.NewMarketDataRepository(db.Pool),
		fundamentals: store.NewFundamentalsRepository(db.Pool),
		earnings:     store.NewEarningsRepository(db.Pool),
		tickers:      store.NewTickerRepository(db.Pool),
	}

	a.collector = fetch.NewCollector(router, a.market, a.fundamentals, a.earnings, a.tickers, log)
	a.orchestrator = scoring.NewOrchestrator(
		scoring.NewTechnicalComputer(log),
		scoring.NewFundamentalComputer(log),
		scoring.NewAnalystComputer(log),
		a.scores, a.market, a.fundamentals, a.earnings, a.tickers,
		rec, log,
	)

	return a, nil
}

// buildProviders returns the enabled provider clients.
func buildProviders(cfg *config.Config, log *logger.Logger) []provider.Provider {
	var out []provider.Provider
	if cfg.FMP.Enabled {
		out = append(out, fmp.NewClient(cfg.FMP, log))
	}
	if cfg.Yahoo.Enabled {
		out = append(out, yahoo.NewClient(cfg.Yahoo, log))
	}
	if cfg.Finnhub.Enabled {
		out = append(out, finnhub.NewClient(cfg.Finnhub, log))
	}
	if cfg.Polygon.Enabled {
		out = append(out, polygon.NewClient(cfg.Polygon, log))
	}
	if cfg.AlphaVantage.Enabled {
		out = append(out, alphavantage.NewClient(cfg.AlphaVantage, log))
	}
	return out
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
