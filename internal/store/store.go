package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/funddash/internal/contracts"
)

// DB is the subset of pgxpool.Pool the repositories use. pgxmock
// satisfies it too, which is how the repository tests run without a
// database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	_ contracts.ScoreRepository        = (*ScoreRepository)(nil)
	_ contracts.MarketDataRepository   = (*MarketDataRepository)(nil)
	_ contracts.FundamentalsRepository = (*FundamentalsRepository)(nil)
	_ contracts.EarningsRepository     = (*EarningsRepository)(nil)
	_ contracts.TickerRepository       = (*TickerRepository)(nil)
)
