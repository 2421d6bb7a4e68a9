package scoring

import (
	"fmt"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
)

// FundamentalComputer derives fundamental sub-scores from persisted
// ratio data. Pure: no network or database access.
type FundamentalComputer struct {
	logger *logger.Logger
}

// NewFundamentalComputer creates a new fundamental computer
func NewFundamentalComputer(log *logger.Logger) *FundamentalComputer {
	return &FundamentalComputer{
		logger: log.WithField("module", "fundamental"),
	}
}

// Compute calculates the fundamental score vector for one ticker.
func (c *FundamentalComputer) Compute(in *contracts.FundamentalInputs) (contracts.FundamentalScores, contracts.DomainResult) {
	var scores contracts.FundamentalScores

	if in == nil {
		return scores, contracts.DomainResult{
			Status:       contracts.StatusFailed,
			ErrorMessage: "no fundamental inputs available",
		}
	}

	required := []*float64{
		in.PERatio, in.PBRatio, in.ROE, in.ROA,
		in.DebtToEquity, in.CurrentRatio,
		in.GrossMargin, in.OperatingMargin,
		in.RevenueGrowth, in.EPSGrowth,
	}
	present, total := presence(required)
	quality := qualityScore(present, total)

	result := contracts.DomainResult{
		DataQuality: quality,
		Status:      statusFor(quality),
	}
	if result.Status == contracts.StatusFailed {
		result.ErrorMessage = fmt.Sprintf("insufficient fundamental data: %d/%d fields", present, total)
		return scores, result
	}

	scores.ValuationScore = c.valuationScore(in.PERatio, in.PBRatio)
	scores.ProfitabilityScore = c.profitabilityScore(in.ROE, in.ROA, in.GrossMargin, in.OperatingMargin)
	scores.GrowthScore = c.growthScore(in.RevenueGrowth, in.EPSGrowth)
	scores.LeverageScore = c.leverageScore(in.DebtToEquity)
	scores.LiquidityScore = c.liquidityScore(in.CurrentRatio)
	scores.CashFlowScore = c.cashFlowScore(in.FreeCashFlow)
	scores.EfficiencyScore = c.efficiencyScore(in.AssetTurnover)

	scores.Overall = mean(
		scores.ValuationScore, scores.ProfitabilityScore, scores.GrowthScore,
		scores.LeverageScore, scores.LiquidityScore,
		scores.CashFlowScore, scores.EfficiencyScore,
	)

	c.logger.WithFields(map[string]interface{}{
		"ticker":  in.Ticker,
		"overall": scores.Overall,
		"quality": quality,
	}).Debug("Computed fundamental scores")

	return scores, result
}

// valuationScore rewards cheap multiples. Negative PE (loss-making) is a
// meaningful value, scored low rather than erroring.
func (c *FundamentalComputer) valuationScore(pe, pb *float64) float64 {
	peScore := 50.0
	if pe != nil {
		switch {
		case *pe <= 0:
			peScore = 20
		case *pe < 15:
			peScore = 90
		case *pe < 25:
			peScore = 70
		case *pe < 40:
			peScore = 45
		default:
			peScore = 20
		}
	}

	pbScore := 50.0
	if pb != nil {
		switch {
		case *pb <= 0:
			pbScore = 20
		case *pb < 1:
			pbScore = 90
		case *pb < 3:
			pbScore = 65
		case *pb < 6:
			pbScore = 40
		default:
			pbScore = 20
		}
	}

	return mean(peScore, pbScore)
}

func (c *FundamentalComputer) profitabilityScore(roe, roa, gross, operating *float64) float64 {
	// ROE 0% -> 50, 20%+ -> 100, negative scales down
	roeScore := clampScore(50 + orNeutral(roe, 0)*250)
	roaScore := clampScore(50 + orNeutral(roa, 0)*500)
	grossScore := clampScore(orNeutral(gross, 0.5) * 100 * 1.4)
	opScore := clampScore(50 + orNeutral(operating, 0)*200)
	return mean(roeScore, roaScore, grossScore, opScore)
}

func (c *FundamentalComputer) growthScore(revenue, eps *float64) float64 {
	// 0% growth -> 50, +25% -> 100, -25% -> 0
	revScore := clampScore(50 + orNeutral(revenue, 0)*200)
	epsScore := clampScore(50 + orNeutral(eps, 0)*200)
	return mean(revScore, epsScore)
}

// leverageScore rewards low debt. D/E of 0 is a meaningful zero.
func (c *FundamentalComputer) leverageScore(de *float64) float64 {
	if de == nil {
		return 50
	}
	switch {
	case *de < 0:
		return 20 // negative equity
	case *de < 0.5:
		return 90
	case *de < 1:
		return 70
	case *de < 2:
		return 45
	default:
		return 20
	}
}

func (c *FundamentalComputer) liquidityScore(current *float64) float64 {
	if current == nil {
		return 50
	}
	switch {
	case *current >= 2:
		return 90
	case *current >= 1.5:
		return 75
	case *current >= 1:
		return 55
	default:
		return 25
	}
}

func (c *FundamentalComputer) cashFlowScore(fcf *float64) float64 {
	if fcf == nil {
		return 50
	}
	if *fcf > 0 {
		return 80
	}
	return 25
}

func (c *FundamentalComputer) efficiencyScore(turnover *float64) float64 {
	if turnover == nil {
		return 50
	}
	return clampScore(orNeutral(turnover, 0.5) * 70)
}
