package scoring

import (
	"fmt"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
)

// TechnicalComputer derives technical sub-scores from persisted indicator
// data. Pure: no network or database access.
type TechnicalComputer struct {
	logger *logger.Logger
}

// NewTechnicalComputer creates a new technical computer
func NewTechnicalComputer(log *logger.Logger) *TechnicalComputer {
	return &TechnicalComputer{
		logger: log.WithField("module", "technical"),
	}
}

// Compute calculates the technical score vector for one ticker. Errors
// are captured in the DomainResult, never returned: one failed domain
// must not abort the ticker's run.
func (c *TechnicalComputer) Compute(in *contracts.TechnicalInputs) (contracts.TechnicalScores, contracts.DomainResult) {
	var scores contracts.TechnicalScores

	if in == nil {
		return scores, contracts.DomainResult{
			Status:       contracts.StatusFailed,
			ErrorMessage: "no technical inputs available",
		}
	}

	required := []*float64{
		in.Close, in.SMA50, in.SMA200, in.RSI14,
		in.MACD, in.MACDSignalLine,
		in.BollingerUpper, in.BollingerLower,
		in.Volume, in.AvgVolume20,
	}
	present, total := presence(required)
	quality := qualityScore(present, total)

	result := contracts.DomainResult{
		DataQuality: quality,
		Status:      statusFor(quality),
	}
	if result.Status == contracts.StatusFailed {
		result.ErrorMessage = fmt.Sprintf("insufficient technical data: %d/%d fields", present, total)
		return scores, result
	}

	close := orNeutral(in.Close, 0)

	scores.TrendScore = c.trendScore(close, in.SMA50, in.SMA200)
	scores.MomentumScore = c.momentumScore(close, in.SMA50)
	scores.RSISignal = c.rsiSignal(in.RSI14)
	scores.MACDSignal = c.macdSignal(in.MACD, in.MACDSignalLine)
	scores.VolatilityScore = c.volatilityScore(close, in.ATR14)

	bollinger, err := c.bollingerSignal(close, in.BollingerUpper, in.BollingerLower)
	if err != nil {
		result.Status = contracts.StatusFailed
		result.ErrorMessage = err.Error()
		return contracts.TechnicalScores{}, result
	}
	scores.BollingerSignal = bollinger

	volume, err := c.volumeScore(in.Volume, in.AvgVolume20)
	if err != nil {
		result.Status = contracts.StatusFailed
		result.ErrorMessage = err.Error()
		return contracts.TechnicalScores{}, result
	}
	scores.VolumeScore = volume

	scores.Overall = mean(
		scores.TrendScore, scores.MomentumScore, scores.RSISignal,
		scores.MACDSignal, scores.BollingerSignal,
		scores.VolatilityScore, scores.VolumeScore,
	)

	c.logger.WithFields(map[string]interface{}{
		"ticker":  in.Ticker,
		"overall": scores.Overall,
		"quality": quality,
	}).Debug("Computed technical scores")

	return scores, result
}

// trendScore rewards price above the long and medium moving averages.
func (c *TechnicalComputer) trendScore(close float64, sma50, sma200 *float64) float64 {
	score := 50.0
	if sma50 != nil {
		if close > *sma50 {
			score += 15
		} else {
			score -= 15
		}
	}
	if sma200 != nil {
		if close > *sma200 {
			score += 25
		} else {
			score -= 25
		}
	}
	// Golden cross
	if sma50 != nil && sma200 != nil && *sma50 > *sma200 {
		score += 10
	}
	return clampScore(score)
}

// momentumScore maps the close/SMA50 ratio to 0-100, 1.0 neutral.
func (c *TechnicalComputer) momentumScore(close float64, sma50 *float64) float64 {
	if sma50 == nil || *sma50 == 0 {
		return 50
	}
	ratio := close / *sma50
	// +/-20% around the average covers the full scale
	return clampScore(50 + (ratio-1)*250)
}

// rsiSignal scores distance from the neutral 50 line: mid-range RSI
// scores high, overbought/oversold extremes score low.
func (c *TechnicalComputer) rsiSignal(rsi *float64) float64 {
	if rsi == nil {
		return 50
	}
	dist := *rsi - 50
	if dist < 0 {
		dist = -dist
	}
	return clampScore(100 - dist*2)
}

// macdSignal rewards the MACD line above its signal line.
func (c *TechnicalComputer) macdSignal(macd, signal *float64) float64 {
	if macd == nil || signal == nil {
		return 50
	}
	if *macd > *signal {
		return 75
	}
	return 25
}

// bollingerSignal scores position inside the band. A collapsed band is a
// degenerate input, not a meaningful zero.
func (c *TechnicalComputer) bollingerSignal(close float64, upper, lower *float64) (float64, error) {
	if upper == nil || lower == nil {
		return 50, nil
	}
	width := *upper - *lower
	if width == 0 {
		return 0, fmt.Errorf("bollinger band width is zero (upper=lower=%v)", *upper)
	}
	return clampScore((close - *lower) / width * 100), nil
}

// volatilityScore scores inverse ATR relative to price. ATR is optional.
func (c *TechnicalComputer) volatilityScore(close float64, atr *float64) float64 {
	if atr == nil || close == 0 {
		return 50
	}
	// 0% daily range -> 100, 8%+ -> 0
	return clampScore(100 - (*atr / close * 1250))
}

// volumeScore maps current volume against the 20-day average.
func (c *TechnicalComputer) volumeScore(volume, avg *float64) (float64, error) {
	if volume == nil || avg == nil {
		return 50, nil
	}
	if *avg == 0 {
		return 0, fmt.Errorf("average volume is zero")
	}
	ratio := *volume / *avg
	return clampScore(ratio * 50), nil
}
