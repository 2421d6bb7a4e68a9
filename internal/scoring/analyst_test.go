package scoring

import (
	"strings"
	"testing"
	"time"

	"github.com/wonny/funddash/internal/contracts"
)

func fullAnalystInputs() *contracts.AnalystInputs {
	next := time.Date(2026, 4, 28, 0, 0, 0, 0, time.UTC)
	return &contracts.AnalystInputs{
		Ticker:           "AAPL",
		ConsensusRating:  fptr(2.0), // buy
		TargetPrice:      fptr(210),
		CurrentPrice:     fptr(190),
		AnalystCount:     fptr(30),
		LastSurprisePct:  fptr(4.2),
		RevisionsUp:      fptr(6),
		RevisionsDown:    fptr(2),
		NextEarningsDate: &next,
	}
}

func TestAnalystCompute_FullInputs(t *testing.T) {
	c := NewAnalystComputer(testLog())

	scores, result := c.Compute(fullAnalystInputs())

	if result.Status != contracts.StatusSuccess {
		t.Fatalf("status = %s, want success (quality %d)", result.Status, result.DataQuality)
	}

	// (5-2)/4 * 100
	if scores.ConsensusScore != 75 {
		t.Errorf("ConsensusScore = %v, want 75", scores.ConsensusScore)
	}
	// 6/(6+2) * 100
	if scores.RevisionScore != 75 {
		t.Errorf("RevisionScore = %v, want 75", scores.RevisionScore)
	}
	// 30 analysts caps at 100
	if scores.CoverageScore != 100 {
		t.Errorf("CoverageScore = %v, want 100", scores.CoverageScore)
	}
}

func TestAnalystCompute_ZeroPriceFails(t *testing.T) {
	in := fullAnalystInputs()
	in.CurrentPrice = fptr(0)

	c := NewAnalystComputer(testLog())
	_, result := c.Compute(in)

	if result.Status != contracts.StatusFailed {
		t.Errorf("status = %s, want failed on zero current price", result.Status)
	}
	if !strings.Contains(result.ErrorMessage, "price") {
		t.Errorf("error message %q should name the bad input", result.ErrorMessage)
	}
}

func TestAnalystCompute_NoRevisionsIsNeutral(t *testing.T) {
	in := fullAnalystInputs()
	in.RevisionsUp = fptr(0)
	in.RevisionsDown = fptr(0)

	c := NewAnalystComputer(testLog())
	scores, result := c.Compute(in)

	if result.Status != contracts.StatusSuccess {
		t.Fatalf("zero revisions either way must not fail the domain, got %s", result.Status)
	}
	if scores.RevisionScore != 50 {
		t.Errorf("RevisionScore = %v, want neutral 50", scores.RevisionScore)
	}
}

func TestAnalystCompute_SparseFails(t *testing.T) {
	in := &contracts.AnalystInputs{
		Ticker:          "SPARSE",
		ConsensusRating: fptr(3),
	}

	c := NewAnalystComputer(testLog())
	_, result := c.Compute(in)

	// 1 of 5 required fields -> quality 20
	if result.DataQuality != 20 {
		t.Errorf("quality = %d, want 20", result.DataQuality)
	}
	if result.Status != contracts.StatusFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
}

func TestTargetUpside(t *testing.T) {
	c := NewAnalystComputer(testLog())

	// +10% upside -> 70
	got, err := c.targetUpside(fptr(110), fptr(100))
	if err != nil {
		t.Fatalf("targetUpside returned error: %v", err)
	}
	if got != 70 {
		t.Errorf("targetUpside(110, 100) = %v, want 70", got)
	}

	// -25% downside clamps to 0
	got, err = c.targetUpside(fptr(75), fptr(100))
	if err != nil {
		t.Fatalf("targetUpside returned error: %v", err)
	}
	if got != 0 {
		t.Errorf("targetUpside(75, 100) = %v, want 0", got)
	}
}
