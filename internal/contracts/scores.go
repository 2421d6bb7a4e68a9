package contracts

import (
	"time"
)

// CalculationStatus classifies the quality of one domain's calculation.
type CalculationStatus string

const (
	StatusSuccess CalculationStatus = "success"
	StatusPartial CalculationStatus = "partial"
	StatusFailed  CalculationStatus = "failed"
)

// DomainResult carries the quality metadata for one score domain.
type DomainResult struct {
	DataQuality  int               // 0-100, percentage of required fields present
	Status       CalculationStatus // success >= 80, partial 50-79, failed < 50
	ErrorMessage string
}

// TechnicalScores holds the technical sub-scores, all normalized to 0-100.
type TechnicalScores struct {
	TrendScore      float64
	MomentumScore   float64
	VolatilityScore float64
	VolumeScore     float64
	RSISignal       float64
	MACDSignal      float64
	BollingerSignal float64
	Overall         float64
}

// FundamentalScores holds the fundamental sub-scores, all normalized to 0-100.
type FundamentalScores struct {
	ValuationScore     float64
	ProfitabilityScore float64
	GrowthScore        float64
	LeverageScore      float64
	LiquidityScore     float64
	CashFlowScore      float64
	EfficiencyScore    float64
	Overall            float64
}

// AnalystScores holds the analyst sub-scores, all normalized to 0-100.
type AnalystScores struct {
	ConsensusScore float64
	TargetUpside   float64
	RevisionScore  float64
	SurpriseScore  float64
	CoverageScore  float64
	Overall        float64
}

// ScoreRecord is the per-ticker per-day aggregate of computed scores.
// Unique on (Ticker, CalculationDate).
type ScoreRecord struct {
	Ticker          string
	CalculationDate time.Time

	Technical   TechnicalScores
	Fundamental FundamentalScores
	Analyst     AnalystScores

	TechnicalResult   DomainResult
	FundamentalResult DomainResult
	AnalystResult     DomainResult

	CompositeScore float64
	UpdatedAt      time.Time
}

// AllSuccess reports whether all three domains calculated successfully.
// Used to decide whether a ticker can be skipped on non-forced runs.
func (s *ScoreRecord) AllSuccess() bool {
	return s.TechnicalResult.Status == StatusSuccess &&
		s.FundamentalResult.Status == StatusSuccess &&
		s.AnalystResult.Status == StatusSuccess
}

// Composite computes the weighted composite across domains. Failed domains
// are excluded and the weights of the remaining domains renormalized.
func (s *ScoreRecord) Composite() float64 {
	type part struct {
		score  float64
		weight float64
		status CalculationStatus
	}

	parts := []part{
		{s.Technical.Overall, 0.35, s.TechnicalResult.Status},
		{s.Fundamental.Overall, 0.45, s.FundamentalResult.Status},
		{s.Analyst.Overall, 0.20, s.AnalystResult.Status},
	}

	var sum, weight float64
	for _, p := range parts {
		if p.status == StatusFailed {
			continue
		}
		sum += p.score * p.weight
		weight += p.weight
	}

	if weight == 0 {
		return 0
	}
	return sum / weight
}

// RunState tracks the lifecycle of a scoring run.
type RunState string

const (
	RunPending    RunState = "pending"
	RunInProgress RunState = "in_progress"
	RunCompleted  RunState = "completed"
	RunTimedOut   RunState = "timed_out"
)

// RunSummary reports the aggregate outcome of a scoring run.
type RunSummary struct {
	State     RunState      `json:"state"`
	Succeeded int           `json:"succeeded"`
	Partial   int           `json:"partial"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Elapsed   time.Duration `json:"elapsed"`
	StartedAt time.Time     `json:"started_at"`
}

// Total returns the number of tickers the run touched.
func (r *RunSummary) Total() int {
	return r.Succeeded + r.Partial + r.Failed + r.Skipped
}
