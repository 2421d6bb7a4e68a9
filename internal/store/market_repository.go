package store

import (
	"context"
	"time"

	"github.com/wonny/funddash/internal/contracts"
)

// MarketDataRepository implements contracts.MarketDataRepository on the
// data.indicators table. One row per ticker per date; the scoring read
// takes the newest row at or before the requested date.
type MarketDataRepository struct {
	db DB
}

// NewMarketDataRepository creates a new market data repository.
func NewMarketDataRepository(db DB) *MarketDataRepository {
	return &MarketDataRepository{db: db}
}

// GetTechnicalInputs retrieves the latest indicator row for a ticker at
// or before date.
func (r *MarketDataRepository) GetTechnicalInputs(ctx context.Context, ticker string, date time.Time) (*contracts.TechnicalInputs, error) {
	query := `
		SELECT ticker, date, close_price, sma_50, sma_200, rsi_14,
			macd, macd_signal, bollinger_upper, bollinger_lower,
			atr_14, volume, avg_volume_20
		FROM data.indicators
		WHERE ticker = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`

	var in contracts.TechnicalInputs
	err := r.db.QueryRow(ctx, query, ticker, date).Scan(
		&in.Ticker, &in.Date, &in.Close, &in.SMA50, &in.SMA200, &in.RSI14,
		&in.MACD, &in.MACDSignalLine, &in.BollingerUpper, &in.BollingerLower,
		&in.ATR14, &in.Volume, &in.AvgVolume20,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// SaveIndicators upserts one indicator row. Fields the new row carries
// as NULL keep their previously saved values, so partial fetches from
// different providers accumulate instead of clobbering each other.
func (r *MarketDataRepository) SaveIndicators(ctx context.Context, in *contracts.TechnicalInputs) error {
	query := `
		INSERT INTO data.indicators (
			ticker, date, close_price, sma_50, sma_200, rsi_14,
			macd, macd_signal, bollinger_upper, bollinger_lower,
			atr_14, volume, avg_volume_20
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (ticker, date) DO UPDATE SET
			close_price = COALESCE(EXCLUDED.close_price, data.indicators.close_price),
			sma_50 = COALESCE(EXCLUDED.sma_50, data.indicators.sma_50),
			sma_200 = COALESCE(EXCLUDED.sma_200, data.indicators.sma_200),
			rsi_14 = COALESCE(EXCLUDED.rsi_14, data.indicators.rsi_14),
			macd = COALESCE(EXCLUDED.macd, data.indicators.macd),
			macd_signal = COALESCE(EXCLUDED.macd_signal, data.indicators.macd_signal),
			bollinger_upper = COALESCE(EXCLUDED.bollinger_upper, data.indicators.bollinger_upper),
			bollinger_lower = COALESCE(EXCLUDED.bollinger_lower, data.indicators.bollinger_lower),
			atr_14 = COALESCE(EXCLUDED.atr_14, data.indicators.atr_14),
			volume = COALESCE(EXCLUDED.volume, data.indicators.volume),
			avg_volume_20 = COALESCE(EXCLUDED.avg_volume_20, data.indicators.avg_volume_20)
	`

	_, err := r.db.Exec(ctx, query,
		in.Ticker, in.Date, in.Close, in.SMA50, in.SMA200, in.RSI14,
		in.MACD, in.MACDSignalLine, in.BollingerUpper, in.BollingerLower,
		in.ATR14, in.Volume, in.AvgVolume20,
	)
	return err
}
