package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/funddash/internal/contracts"
)

// scoreColumns is the shared column list for both score tables.
const scoreColumns = `
	ticker, calculation_date,
	trend_score, momentum_score, volatility_score, volume_score,
	rsi_signal, macd_signal, bollinger_signal, technical_overall,
	valuation_score, profitability_score, growth_score, leverage_score,
	liquidity_score, cash_flow_score, efficiency_score, fundamental_overall,
	consensus_score, target_upside, revision_score, surprise_score,
	coverage_score, analyst_overall,
	technical_quality, technical_status, technical_error,
	fundamental_quality, fundamental_status, fundamental_error,
	analyst_quality, analyst_status, analyst_error,
	composite_score, updated_at`

const scorePlaceholders = `
	$1, $2,
	$3, $4, $5, $6, $7, $8, $9, $10,
	$11, $12, $13, $14, $15, $16, $17, $18,
	$19, $20, $21, $22, $23, $24,
	$25, $26, $27, $28, $29, $30, $31, $32, $33,
	$34, $35`

// scoreUpdateSet rewrites every non-key column on conflict. Both tables
// share it so a reprocessed ticker+date replaces the old row completely
// and current and history never diverge.
const scoreUpdateSet = `
	trend_score = EXCLUDED.trend_score,
	momentum_score = EXCLUDED.momentum_score,
	volatility_score = EXCLUDED.volatility_score,
	volume_score = EXCLUDED.volume_score,
	rsi_signal = EXCLUDED.rsi_signal,
	macd_signal = EXCLUDED.macd_signal,
	bollinger_signal = EXCLUDED.bollinger_signal,
	technical_overall = EXCLUDED.technical_overall,
	valuation_score = EXCLUDED.valuation_score,
	profitability_score = EXCLUDED.profitability_score,
	growth_score = EXCLUDED.growth_score,
	leverage_score = EXCLUDED.leverage_score,
	liquidity_score = EXCLUDED.liquidity_score,
	cash_flow_score = EXCLUDED.cash_flow_score,
	efficiency_score = EXCLUDED.efficiency_score,
	fundamental_overall = EXCLUDED.fundamental_overall,
	consensus_score = EXCLUDED.consensus_score,
	target_upside = EXCLUDED.target_upside,
	revision_score = EXCLUDED.revision_score,
	surprise_score = EXCLUDED.surprise_score,
	coverage_score = EXCLUDED.coverage_score,
	analyst_overall = EXCLUDED.analyst_overall,
	technical_quality = EXCLUDED.technical_quality,
	technical_status = EXCLUDED.technical_status,
	technical_error = EXCLUDED.technical_error,
	fundamental_quality = EXCLUDED.fundamental_quality,
	fundamental_status = EXCLUDED.fundamental_status,
	fundamental_error = EXCLUDED.fundamental_error,
	analyst_quality = EXCLUDED.analyst_quality,
	analyst_status = EXCLUDED.analyst_status,
	analyst_error = EXCLUDED.analyst_error,
	composite_score = EXCLUDED.composite_score,
	updated_at = EXCLUDED.updated_at`

// ScoreRepository implements contracts.ScoreRepository on Postgres.
// Every ticker has one row in scores.current and one row per
// calculation date in scores.history.
type ScoreRepository struct {
	db DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// Upsert writes the record to the current and history tables in one
// transaction, so readers never see the two tables disagree.
func (r *ScoreRepository) Upsert(ctx context.Context, record *contracts.ScoreRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	args := scoreArgs(record)

	currentQuery := fmt.Sprintf(`
		INSERT INTO scores.current (%s)
		VALUES (%s)
		ON CONFLICT (ticker) DO UPDATE SET
			calculation_date = EXCLUDED.calculation_date, %s
	`, scoreColumns, scorePlaceholders, scoreUpdateSet)

	if _, err := tx.Exec(ctx, currentQuery, args...); err != nil {
		return fmt.Errorf("upsert current: %w", err)
	}

	historyQuery := fmt.Sprintf(`
		INSERT INTO scores.history (%s)
		VALUES (%s)
		ON CONFLICT (ticker, calculation_date) DO UPDATE SET %s
	`, scoreColumns, scorePlaceholders, scoreUpdateSet)

	if _, err := tx.Exec(ctx, historyQuery, args...); err != nil {
		return fmt.Errorf("upsert history: %w", err)
	}

	return tx.Commit(ctx)
}

// GetCurrent retrieves the latest score record for a ticker. Returns
// pgx.ErrNoRows when the ticker has never been scored.
func (r *ScoreRepository) GetCurrent(ctx context.Context, ticker string) (*contracts.ScoreRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM scores.current WHERE ticker = $1`, scoreColumns)

	record, err := scanRecord(r.db.QueryRow(ctx, query, ticker))
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetHistorical retrieves score history for a ticker within [from, to],
// oldest first.
func (r *ScoreRepository) GetHistorical(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.ScoreRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM scores.history
		WHERE ticker = $1 AND calculation_date BETWEEN $2 AND $3
		ORDER BY calculation_date ASC
	`, scoreColumns)

	rows, err := r.db.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*contracts.ScoreRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Prune deletes history older than daysToKeep, anchored at each
// ticker's own newest calculation date rather than the wall clock, so
// neither downtime nor a delisted ticker shrinks a ticker's retained
// window below daysToKeep of its dates.
func (r *ScoreRepository) Prune(ctx context.Context, daysToKeep int) (int64, error) {
	query := `
		DELETE FROM scores.history h
		WHERE h.calculation_date <= (
			SELECT MAX(calculation_date) FROM scores.history
			WHERE ticker = h.ticker
		) - $1::int * INTERVAL '1 day'
	`

	tag, err := r.db.Exec(ctx, query, daysToKeep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DomainSuccessRates reports, per domain, the fraction of tickers whose
// calculation succeeded on the given date.
func (r *ScoreRepository) DomainSuccessRates(ctx context.Context, date time.Time) (map[string]float64, error) {
	query := `
		SELECT
			AVG(CASE WHEN technical_status = 'success' THEN 1.0 ELSE 0.0 END),
			AVG(CASE WHEN fundamental_status = 'success' THEN 1.0 ELSE 0.0 END),
			AVG(CASE WHEN analyst_status = 'success' THEN 1.0 ELSE 0.0 END)
		FROM scores.history
		WHERE calculation_date = $1
	`

	var technical, fundamental, analyst *float64
	err := r.db.QueryRow(ctx, query, date).Scan(&technical, &fundamental, &analyst)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]float64{}, nil
		}
		return nil, err
	}

	rates := map[string]float64{}
	if technical != nil {
		rates["technical"] = *technical
	}
	if fundamental != nil {
		rates["fundamental"] = *fundamental
	}
	if analyst != nil {
		rates["analyst"] = *analyst
	}
	return rates, nil
}

func scoreArgs(s *contracts.ScoreRecord) []any {
	return []any{
		s.Ticker, s.CalculationDate,
		s.Technical.TrendScore, s.Technical.MomentumScore, s.Technical.VolatilityScore, s.Technical.VolumeScore,
		s.Technical.RSISignal, s.Technical.MACDSignal, s.Technical.BollingerSignal, s.Technical.Overall,
		s.Fundamental.ValuationScore, s.Fundamental.ProfitabilityScore, s.Fundamental.GrowthScore, s.Fundamental.LeverageScore,
		s.Fundamental.LiquidityScore, s.Fundamental.CashFlowScore, s.Fundamental.EfficiencyScore, s.Fundamental.Overall,
		s.Analyst.ConsensusScore, s.Analyst.TargetUpside, s.Analyst.RevisionScore, s.Analyst.SurpriseScore,
		s.Analyst.CoverageScore, s.Analyst.Overall,
		s.TechnicalResult.DataQuality, string(s.TechnicalResult.Status), s.TechnicalResult.ErrorMessage,
		s.FundamentalResult.DataQuality, string(s.FundamentalResult.Status), s.FundamentalResult.ErrorMessage,
		s.AnalystResult.DataQuality, string(s.AnalystResult.Status), s.AnalystResult.ErrorMessage,
		s.CompositeScore, s.UpdatedAt,
	}
}

func scanRecord(row pgx.Row) (*contracts.ScoreRecord, error) {
	var s contracts.ScoreRecord
	var techStatus, fundStatus, anStatus string

	err := row.Scan(
		&s.Ticker, &s.CalculationDate,
		&s.Technical.TrendScore, &s.Technical.MomentumScore, &s.Technical.VolatilityScore, &s.Technical.VolumeScore,
		&s.Technical.RSISignal, &s.Technical.MACDSignal, &s.Technical.BollingerSignal, &s.Technical.Overall,
		&s.Fundamental.ValuationScore, &s.Fundamental.ProfitabilityScore, &s.Fundamental.GrowthScore, &s.Fundamental.LeverageScore,
		&s.Fundamental.LiquidityScore, &s.Fundamental.CashFlowScore, &s.Fundamental.EfficiencyScore, &s.Fundamental.Overall,
		&s.Analyst.ConsensusScore, &s.Analyst.TargetUpside, &s.Analyst.RevisionScore, &s.Analyst.SurpriseScore,
		&s.Analyst.CoverageScore, &s.Analyst.Overall,
		&s.TechnicalResult.DataQuality, &techStatus, &s.TechnicalResult.ErrorMessage,
		&s.FundamentalResult.DataQuality, &fundStatus, &s.FundamentalResult.ErrorMessage,
		&s.AnalystResult.DataQuality, &anStatus, &s.AnalystResult.ErrorMessage,
		&s.CompositeScore, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.TechnicalResult.Status = contracts.CalculationStatus(techStatus)
	s.FundamentalResult.Status = contracts.CalculationStatus(fundStatus)
	s.AnalystResult.Status = contracts.CalculationStatus(anStatus)
	return &s, nil
}
