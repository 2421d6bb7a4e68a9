package store

import (
	"context"
)

// TickerRepository implements contracts.TickerRepository on the
// data.tickers table.
type TickerRepository struct {
	db DB
}

// NewTickerRepository creates a new ticker repository.
func NewTickerRepository(db DB) *TickerRepository {
	return &TickerRepository{db: db}
}

// GetActiveTickers lists tracked tickers, alphabetical.
func (r *TickerRepository) GetActiveTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT ticker FROM data.tickers
		WHERE active = TRUE
		ORDER BY ticker ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
