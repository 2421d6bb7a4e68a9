package scoring

import (
	"testing"

	"github.com/wonny/funddash/internal/contracts"
)

func fullFundamentalInputs() *contracts.FundamentalInputs {
	return &contracts.FundamentalInputs{
		Ticker:          "AAPL",
		PERatio:         fptr(22),
		PBRatio:         fptr(2.1),
		ROE:             fptr(0.22),
		ROA:             fptr(0.11),
		DebtToEquity:    fptr(0.8),
		CurrentRatio:    fptr(1.6),
		GrossMargin:     fptr(0.44),
		OperatingMargin: fptr(0.29),
		RevenueGrowth:   fptr(0.08),
		EPSGrowth:       fptr(0.12),
		FreeCashFlow:    fptr(9_000_000_000),
		AssetTurnover:   fptr(1.1),
	}
}

func TestFundamentalCompute_FullInputs(t *testing.T) {
	c := NewFundamentalComputer(testLog())

	scores, result := c.Compute(fullFundamentalInputs())

	if result.Status != contracts.StatusSuccess {
		t.Fatalf("status = %s, want success (quality %d)", result.Status, result.DataQuality)
	}
	if result.DataQuality != 100 {
		t.Errorf("quality = %d, want 100", result.DataQuality)
	}

	// PE 22 (70) and PB 2.1 (65) average
	if scores.ValuationScore != 67.5 {
		t.Errorf("ValuationScore = %v, want 67.5", scores.ValuationScore)
	}
	if scores.LeverageScore != 70 {
		t.Errorf("LeverageScore = %v, want 70 for D/E 0.8", scores.LeverageScore)
	}
	if scores.CashFlowScore != 80 {
		t.Errorf("CashFlowScore = %v, want 80 for positive FCF", scores.CashFlowScore)
	}
	if scores.Overall <= 0 || scores.Overall > 100 {
		t.Errorf("Overall = %v, out of range", scores.Overall)
	}
}

func TestFundamentalCompute_NegativePE(t *testing.T) {
	in := fullFundamentalInputs()
	in.PERatio = fptr(-8) // loss-making, meaningful value

	c := NewFundamentalComputer(testLog())
	scores, result := c.Compute(in)

	if result.Status != contracts.StatusSuccess {
		t.Fatalf("negative PE must not fail the domain, got %s", result.Status)
	}
	// PE -8 (20) and PB 2.1 (65)
	if scores.ValuationScore != 42.5 {
		t.Errorf("ValuationScore = %v, want 42.5", scores.ValuationScore)
	}
}

func TestFundamentalCompute_HalfInputsPartial(t *testing.T) {
	in := &contracts.FundamentalInputs{
		Ticker:       "HALF",
		PERatio:      fptr(18),
		PBRatio:      fptr(1.5),
		ROE:          fptr(0.1),
		DebtToEquity: fptr(0.4),
		CurrentRatio: fptr(2.2),
	}

	c := NewFundamentalComputer(testLog())
	_, result := c.Compute(in)

	if result.DataQuality != 50 {
		t.Errorf("quality = %d, want 50", result.DataQuality)
	}
	if result.Status != contracts.StatusPartial {
		t.Errorf("status = %s, want partial", result.Status)
	}
}

func TestFundamentalCompute_EmptyFails(t *testing.T) {
	c := NewFundamentalComputer(testLog())
	_, result := c.Compute(&contracts.FundamentalInputs{Ticker: "EMPTY"})

	if result.Status != contracts.StatusFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
	if result.DataQuality != 0 {
		t.Errorf("quality = %d, want 0", result.DataQuality)
	}
}
