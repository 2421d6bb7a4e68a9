package scoring

import (
	"math"

	"github.com/wonny/funddash/internal/contracts"
)

// Quality thresholds for classifying a domain calculation.
const (
	qualitySuccess = 80
	qualityPartial = 50
)

// presence counts how many of the required fields are non-nil.
func presence(fields []*float64) (present, total int) {
	total = len(fields)
	for _, f := range fields {
		if f != nil {
			present++
		}
	}
	return present, total
}

// qualityScore converts field presence to a 0-100 percentage, rounded to
// the nearest integer.
func qualityScore(present, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// statusFor maps a quality score to a calculation status.
func statusFor(quality int) contracts.CalculationStatus {
	switch {
	case quality >= qualitySuccess:
		return contracts.StatusSuccess
	case quality >= qualityPartial:
		return contracts.StatusPartial
	default:
		return contracts.StatusFailed
	}
}

// clampScore bounds a score to the 0-100 range.
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// orNeutral returns the field value, or the neutral default when missing.
// Partial-quality calculations still produce a full score vector.
func orNeutral(f *float64, neutral float64) float64 {
	if f == nil {
		return neutral
	}
	return *f
}

// mean averages a score vector.
func mean(scores ...float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
