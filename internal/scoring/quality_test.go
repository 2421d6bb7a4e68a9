package scoring

import (
	"testing"

	"github.com/wonny/funddash/internal/contracts"
)

func fptr(v float64) *float64 { return &v }

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name    string
		present int
		total   int
		want    int
	}{
		{"all present", 10, 10, 100},
		{"eight of ten", 8, 10, 80},
		{"four of ten", 4, 10, 40},
		{"two thirds", 2, 3, 67},
		{"none", 0, 10, 0},
		{"empty", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := qualityScore(tt.present, tt.total); got != tt.want {
				t.Errorf("qualityScore(%d, %d) = %d, want %d", tt.present, tt.total, got, tt.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		quality int
		want    contracts.CalculationStatus
	}{
		{100, contracts.StatusSuccess},
		{80, contracts.StatusSuccess},
		{79, contracts.StatusPartial},
		{50, contracts.StatusPartial},
		{49, contracts.StatusFailed},
		{0, contracts.StatusFailed},
	}

	for _, tt := range tests {
		if got := statusFor(tt.quality); got != tt.want {
			t.Errorf("statusFor(%d) = %s, want %s", tt.quality, got, tt.want)
		}
	}
}

func TestPresence(t *testing.T) {
	fields := []*float64{fptr(1), nil, fptr(3), nil, fptr(5)}
	present, total := presence(fields)
	if present != 3 || total != 5 {
		t.Errorf("presence = (%d, %d), want (3, 5)", present, total)
	}
}

func TestClampScore(t *testing.T) {
	if got := clampScore(-5); got != 0 {
		t.Errorf("clampScore(-5) = %v, want 0", got)
	}
	if got := clampScore(105); got != 100 {
		t.Errorf("clampScore(105) = %v, want 100", got)
	}
	if got := clampScore(42); got != 42 {
		t.Errorf("clampScore(42) = %v, want 42", got)
	}
}
