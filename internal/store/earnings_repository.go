package store

import (
	"context"
	"time"

	"github.com/wonny/funddash/internal/contracts"
)

// EarningsRepository implements contracts.EarningsRepository on the
// data.analyst table. One row per ticker, refreshed on each collection.
type EarningsRepository struct {
	db DB
}

// NewEarningsRepository creates a new earnings repository.
func NewEarningsRepository(db DB) *EarningsRepository {
	return &EarningsRepository{db: db}
}

// GetAnalystInputs retrieves the analyst row for a ticker.
func (r *EarningsRepository) GetAnalystInputs(ctx context.Context, ticker string) (*contracts.AnalystInputs, error) {
	query := `
		SELECT ticker, consensus_rating, target_price, current_price,
			analyst_count, last_surprise_pct, revisions_up, revisions_down,
			next_earnings_date
		FROM data.analyst
		WHERE ticker = $1
	`

	var in contracts.AnalystInputs
	err := r.db.QueryRow(ctx, query, ticker).Scan(
		&in.Ticker, &in.ConsensusRating, &in.TargetPrice, &in.CurrentPrice,
		&in.AnalystCount, &in.LastSurprisePct, &in.RevisionsUp, &in.RevisionsDown,
		&in.NextEarningsDate,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// GetNextEarningsDates returns the known next earnings date per ticker.
// Tickers without a known date are absent from the map.
func (r *EarningsRepository) GetNextEarningsDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	query := `
		SELECT ticker, next_earnings_date
		FROM data.analyst
		WHERE ticker = ANY($1) AND next_earnings_date IS NOT NULL
	`

	rows, err := r.db.Query(ctx, query, tickers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string]time.Time)
	for rows.Next() {
		var ticker string
		var date time.Time
		if err := rows.Scan(&ticker, &date); err != nil {
			return nil, err
		}
		dates[ticker] = date
	}
	return dates, rows.Err()
}

// SaveAnalystInputs upserts the analyst row for a ticker with the usual
// NULL-preserving merge.
func (r *EarningsRepository) SaveAnalystInputs(ctx context.Context, in *contracts.AnalystInputs) error {
	query := `
		INSERT INTO data.analyst (
			ticker, consensus_rating, target_price, current_price,
			analyst_count, last_surprise_pct, revisions_up, revisions_down,
			next_earnings_date, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			consensus_rating = COALESCE(EXCLUDED.consensus_rating, data.analyst.consensus_rating),
			target_price = COALESCE(EXCLUDED.target_price, data.analyst.target_price),
			current_price = COALESCE(EXCLUDED.current_price, data.analyst.current_price),
			analyst_count = COALESCE(EXCLUDED.analyst_count, data.analyst.analyst_count),
			last_surprise_pct = COALESCE(EXCLUDED.last_surprise_pct, data.analyst.last_surprise_pct),
			revisions_up = COALESCE(EXCLUDED.revisions_up, data.analyst.revisions_up),
			revisions_down = COALESCE(EXCLUDED.revisions_down, data.analyst.revisions_down),
			next_earnings_date = COALESCE(EXCLUDED.next_earnings_date, data.analyst.next_earnings_date),
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		in.Ticker, in.ConsensusRating, in.TargetPrice, in.CurrentPrice,
		in.AnalystCount, in.LastSurprisePct, in.RevisionsUp, in.RevisionsDown,
		in.NextEarningsDate,
	)
	return err
}
