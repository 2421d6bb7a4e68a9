package store

import (
	"context"
	"time"

	"github.com/wonny/funddash/internal/contracts"
)

// FundamentalsRepository implements contracts.FundamentalsRepository on
// the data.fundamentals table.
type FundamentalsRepository struct {
	db DB
}

// NewFundamentalsRepository creates a new fundamentals repository.
func NewFundamentalsRepository(db DB) *FundamentalsRepository {
	return &FundamentalsRepository{db: db}
}

// GetFundamentalInputs retrieves the latest fundamentals row for a
// ticker at or before date.
func (r *FundamentalsRepository) GetFundamentalInputs(ctx context.Context, ticker string, date time.Time) (*contracts.FundamentalInputs, error) {
	query := `
		SELECT ticker, date, pe_ratio, pb_ratio, roe, roa,
			debt_to_equity, current_ratio, gross_margin, operating_margin,
			revenue_growth, eps_growth, free_cash_flow, asset_turnover
		FROM data.fundamentals
		WHERE ticker = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`

	var in contracts.FundamentalInputs
	err := r.db.QueryRow(ctx, query, ticker, date).Scan(
		&in.Ticker, &in.Date, &in.PERatio, &in.PBRatio, &in.ROE, &in.ROA,
		&in.DebtToEquity, &in.CurrentRatio, &in.GrossMargin, &in.OperatingMargin,
		&in.RevenueGrowth, &in.EPSGrowth, &in.FreeCashFlow, &in.AssetTurnover,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// SaveFundamentals upserts one fundamentals row with the same
// NULL-preserving merge as the indicator table.
func (r *FundamentalsRepository) SaveFundamentals(ctx context.Context, in *contracts.FundamentalInputs) error {
	query := `
		INSERT INTO data.fundamentals (
			ticker, date, pe_ratio, pb_ratio, roe, roa,
			debt_to_equity, current_ratio, gross_margin, operating_margin,
			revenue_growth, eps_growth, free_cash_flow, asset_turnover
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (ticker, date) DO UPDATE SET
			pe_ratio = COALESCE(EXCLUDED.pe_ratio, data.fundamentals.pe_ratio),
			pb_ratio = COALESCE(EXCLUDED.pb_ratio, data.fundamentals.pb_ratio),
			roe = COALESCE(EXCLUDED.roe, data.fundamentals.roe),
			roa = COALESCE(EXCLUDED.roa, data.fundamentals.roa),
			debt_to_equity = COALESCE(EXCLUDED.debt_to_equity, data.fundamentals.debt_to_equity),
			current_ratio = COALESCE(EXCLUDED.current_ratio, data.fundamentals.current_ratio),
			gross_margin = COALESCE(EXCLUDED.gross_margin, data.fundamentals.gross_margin),
			operating_margin = COALESCE(EXCLUDED.operating_margin, data.fundamentals.operating_margin),
			revenue_growth = COALESCE(EXCLUDED.revenue_growth, data.fundamentals.revenue_growth),
			eps_growth = COALESCE(EXCLUDED.eps_growth, data.fundamentals.eps_growth),
			free_cash_flow = COALESCE(EXCLUDED.free_cash_flow, data.fundamentals.free_cash_flow),
			asset_turnover = COALESCE(EXCLUDED.asset_turnover, data.fundamentals.asset_turnover)
	`

	_, err := r.db.Exec(ctx, query,
		in.Ticker, in.Date, in.PERatio, in.PBRatio, in.ROE, in.ROA,
		in.DebtToEquity, in.CurrentRatio, in.GrossMargin, in.OperatingMargin,
		in.RevenueGrowth, in.EPSGrowth, in.FreeCashFlow, in.AssetTurnover,
	)
	return err
}
