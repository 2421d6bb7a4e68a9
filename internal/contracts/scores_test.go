package contracts

import (
	"testing"
	"time"
)

func TestScoreRecord_AllSuccess(t *testing.T) {
	tests := []struct {
		name   string
		record ScoreRecord
		want   bool
	}{
		{
			name: "all success",
			record: ScoreRecord{
				TechnicalResult:   DomainResult{Status: StatusSuccess},
				FundamentalResult: DomainResult{Status: StatusSuccess},
				AnalystResult:     DomainResult{Status: StatusSuccess},
			},
			want: true,
		},
		{
			name: "one partial",
			record: ScoreRecord{
				TechnicalResult:   DomainResult{Status: StatusSuccess},
				FundamentalResult: DomainResult{Status: StatusPartial},
				AnalystResult:     DomainResult{Status: StatusSuccess},
			},
			want: false,
		},
		{
			name:   "zero value",
			record: ScoreRecord{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.AllSuccess(); got != tt.want {
				t.Errorf("AllSuccess() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreRecord_Composite(t *testing.T) {
	record := ScoreRecord{
		Technical:         TechnicalScores{Overall: 80},
		Fundamental:       FundamentalScores{Overall: 60},
		Analyst:           AnalystScores{Overall: 40},
		TechnicalResult:   DomainResult{Status: StatusSuccess},
		FundamentalResult: DomainResult{Status: StatusSuccess},
		AnalystResult:     DomainResult{Status: StatusSuccess},
	}

	// 80*0.35 + 60*0.45 + 40*0.20 = 63
	want := 63.0
	got := record.Composite()
	if diff := got - want; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("Composite() = %v, want %v", got, want)
	}
}

func TestScoreRecord_CompositeExcludesFailedDomain(t *testing.T) {
	record := ScoreRecord{
		Technical:         TechnicalScores{Overall: 80},
		Fundamental:       FundamentalScores{Overall: 60},
		Analyst:           AnalystScores{Overall: 0},
		TechnicalResult:   DomainResult{Status: StatusSuccess},
		FundamentalResult: DomainResult{Status: StatusSuccess},
		AnalystResult:     DomainResult{Status: StatusFailed},
	}

	// Failed analyst domain excluded, weights renormalized:
	// (80*0.35 + 60*0.45) / 0.80 = 68.75
	want := 68.75
	got := record.Composite()
	if diff := got - want; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("Composite() = %v, want %v", got, want)
	}
}

func TestScoreRecord_CompositeAllFailed(t *testing.T) {
	record := ScoreRecord{
		TechnicalResult:   DomainResult{Status: StatusFailed},
		FundamentalResult: DomainResult{Status: StatusFailed},
		AnalystResult:     DomainResult{Status: StatusFailed},
	}

	if got := record.Composite(); got != 0 {
		t.Errorf("Composite() = %v, want 0 when every domain failed", got)
	}
}

func TestAnalystInputs_DaysUntilEarnings(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	in5 := now.Add(5 * 24 * time.Hour)
	past := now.Add(-48 * time.Hour)

	tests := []struct {
		name string
		next *time.Time
		want int
	}{
		{"five days out", &in5, 5},
		{"already passed", &past, 0},
		{"unknown", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalystInputs{NextEarningsDate: tt.next}
			if got := a.DaysUntilEarnings(now); got != tt.want {
				t.Errorf("DaysUntilEarnings() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestProviderResultHelpers(t *testing.T) {
	ok := Success("fmp", Payload{"price": 100.0})
	if !ok.OK() || ok.Retryable() {
		t.Error("Success result should be OK and not retryable")
	}

	rl := RateLimited("fmp", 30*time.Second, nil)
	if rl.OK() || !rl.Retryable() {
		t.Error("RateLimited result should be retryable and not OK")
	}
	if rl.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", rl.RetryAfter)
	}

	perm := PermanentError("fmp", nil)
	if perm.OK() || perm.Retryable() {
		t.Error("PermanentError should be neither OK nor retryable")
	}
}
