package scoring

import (
	"fmt"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
)

// AnalystComputer derives analyst sub-scores from persisted consensus
// and earnings data. Pure: no network or database access.
type AnalystComputer struct {
	logger *logger.Logger
}

// NewAnalystComputer creates a new analyst computer
func NewAnalystComputer(log *logger.Logger) *AnalystComputer {
	return &AnalystComputer{
		logger: log.WithField("module", "analyst"),
	}
}

// Compute calculates the analyst score vector for one ticker.
func (c *AnalystComputer) Compute(in *contracts.AnalystInputs) (contracts.AnalystScores, contracts.DomainResult) {
	var scores contracts.AnalystScores

	if in == nil {
		return scores, contracts.DomainResult{
			Status:       contracts.StatusFailed,
			ErrorMessage: "no analyst inputs available",
		}
	}

	required := []*float64{
		in.ConsensusRating, in.TargetPrice, in.CurrentPrice,
		in.AnalystCount, in.LastSurprisePct,
	}
	present, total := presence(required)
	quality := qualityScore(present, total)

	result := contracts.DomainResult{
		DataQuality: quality,
		Status:      statusFor(quality),
	}
	if result.Status == contracts.StatusFailed {
		result.ErrorMessage = fmt.Sprintf("insufficient analyst data: %d/%d fields", present, total)
		return scores, result
	}

	scores.ConsensusScore = c.consensusScore(in.ConsensusRating)

	upside, err := c.targetUpside(in.TargetPrice, in.CurrentPrice)
	if err != nil {
		result.Status = contracts.StatusFailed
		result.ErrorMessage = err.Error()
		return contracts.AnalystScores{}, result
	}
	scores.TargetUpside = upside

	scores.RevisionScore = c.revisionScore(in.RevisionsUp, in.RevisionsDown)
	scores.SurpriseScore = c.surpriseScore(in.LastSurprisePct)
	scores.CoverageScore = c.coverageScore(in.AnalystCount)

	scores.Overall = mean(
		scores.ConsensusScore, scores.TargetUpside, scores.RevisionScore,
		scores.SurpriseScore, scores.CoverageScore,
	)

	c.logger.WithFields(map[string]interface{}{
		"ticker":  in.Ticker,
		"overall": scores.Overall,
		"quality": quality,
	}).Debug("Computed analyst scores")

	return scores, result
}

// consensusScore maps the 1 (strong buy) to 5 (strong sell) scale.
func (c *AnalystComputer) consensusScore(rating *float64) float64 {
	if rating == nil {
		return 50
	}
	return clampScore((5 - *rating) / 4 * 100)
}

// targetUpside maps consensus target against current price. A current
// price of zero is degenerate input, not a meaningful zero.
func (c *AnalystComputer) targetUpside(target, current *float64) (float64, error) {
	if target == nil || current == nil {
		return 50, nil
	}
	if *current == 0 {
		return 0, fmt.Errorf("current price is zero")
	}
	upside := (*target - *current) / *current
	// -25% -> 0, 0% -> 50, +25% -> 100
	return clampScore(50 + upside*200), nil
}

// revisionScore scores the balance of upward vs downward estimate
// revisions. No revisions either way is a meaningful neutral.
func (c *AnalystComputer) revisionScore(up, down *float64) float64 {
	if up == nil || down == nil {
		return 50
	}
	sum := *up + *down
	if sum == 0 {
		return 50
	}
	return clampScore(*up / sum * 100)
}

func (c *AnalystComputer) surpriseScore(surprise *float64) float64 {
	if surprise == nil {
		return 50
	}
	// -10% miss -> 0, 0% -> 50, +10% beat -> 100
	return clampScore(50 + *surprise*5)
}

func (c *AnalystComputer) coverageScore(count *float64) float64 {
	if count == nil {
		return 50
	}
	return clampScore(*count / 20 * 100)
}
