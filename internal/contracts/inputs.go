package contracts

import (
	"time"
)

// TechnicalInputs is the latest indicator row for a ticker. Fields are
// pointers so a missing value is distinguishable from a real zero.
type TechnicalInputs struct {
	Ticker string
	Date   time.Time

	Close          *float64
	SMA50          *float64
	SMA200         *float64
	RSI14          *float64
	MACD           *float64
	MACDSignalLine *float64
	BollingerUpper *float64
	BollingerLower *float64
	ATR14          *float64
	Volume         *float64
	AvgVolume20    *float64
}

// FundamentalInputs is the latest ratio/fundamentals row for a ticker.
type FundamentalInputs struct {
	Ticker string
	Date   time.Time

	PERatio         *float64
	PBRatio         *float64
	ROE             *float64
	ROA             *float64
	DebtToEquity    *float64
	CurrentRatio    *float64
	GrossMargin     *float64
	OperatingMargin *float64
	RevenueGrowth   *float64
	EPSGrowth       *float64
	FreeCashFlow    *float64
	AssetTurnover   *float64
}

// AnalystInputs is the analyst/earnings-calendar view for a ticker.
type AnalystInputs struct {
	Ticker string

	ConsensusRating *float64 // 1 strong buy .. 5 strong sell
	TargetPrice     *float64
	CurrentPrice    *float64
	AnalystCount    *float64
	LastSurprisePct *float64
	RevisionsUp     *float64
	RevisionsDown   *float64

	NextEarningsDate *time.Time
}

// DaysUntilEarnings returns whole days from now until the next earnings
// date, or -1 when no date is known. Used to prioritize the work queue.
func (a *AnalystInputs) DaysUntilEarnings(now time.Time) int {
	if a.NextEarningsDate == nil {
		return -1
	}
	d := int(a.NextEarningsDate.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
