package contracts

import (
	"context"
	"time"
)

// ScoreRepository is the write/read path for computed score records.
// Upsert writes the current and historical rows atomically.
type ScoreRepository interface {
	Upsert(ctx context.Context, record *ScoreRecord) error
	GetCurrent(ctx context.Context, ticker string) (*ScoreRecord, error)
	GetHistorical(ctx context.Context, ticker string, from, to time.Time) ([]*ScoreRecord, error)
	Prune(ctx context.Context, daysToKeep int) (int64, error)
	DomainSuccessRates(ctx context.Context, date time.Time) (map[string]float64, error)
}

// MarketDataRepository supplies technical inputs from persisted price and
// indicator data.
type MarketDataRepository interface {
	GetTechnicalInputs(ctx context.Context, ticker string, date time.Time) (*TechnicalInputs, error)
	SaveIndicators(ctx context.Context, inputs *TechnicalInputs) error
}

// FundamentalsRepository supplies fundamental inputs from persisted
// ratio data.
type FundamentalsRepository interface {
	GetFundamentalInputs(ctx context.Context, ticker string, date time.Time) (*FundamentalInputs, error)
	SaveFundamentals(ctx context.Context, inputs *FundamentalInputs) error
}

// EarningsRepository supplies analyst inputs and earnings proximity.
type EarningsRepository interface {
	GetAnalystInputs(ctx context.Context, ticker string) (*AnalystInputs, error)
	GetNextEarningsDates(ctx context.Context, tickers []string) (map[string]time.Time, error)
	SaveAnalystInputs(ctx context.Context, inputs *AnalystInputs) error
}

// TickerRepository lists the tickers tracked by the system.
type TickerRepository interface {
	GetActiveTickers(ctx context.Context) ([]string, error)
}
