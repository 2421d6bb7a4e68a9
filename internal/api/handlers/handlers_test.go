package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/logger"
)

type fakeScores struct {
	records map[string]*contracts.ScoreRecord
	history []*contracts.ScoreRecord
	rates   map[string]float64
}

func (f *fakeScores) Upsert(ctx context.Context, record *contracts.ScoreRecord) error {
	return errors.New("read only")
}

func (f *fakeScores) GetCurrent(ctx context.Context, ticker string) (*contracts.ScoreRecord, error) {
	r, ok := f.records[ticker]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

func (f *fakeScores) GetHistorical(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.ScoreRecord, error) {
	return f.history, nil
}

func (f *fakeScores) Prune(ctx context.Context, daysToKeep int) (int64, error) {
	return 0, nil
}

func (f *fakeScores) DomainSuccessRates(ctx context.Context, date time.Time) (map[string]float64, error) {
	return f.rates, nil
}

func testLog() *logger.Logger {
	return logger.NewWriter(io.Discard, "error")
}

func scoresRouter(h *ScoresHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/scores/{ticker}", h.GetCurrent).Methods("GET")
	r.HandleFunc("/api/v1/scores/{ticker}/history", h.GetHistory).Methods("GET")
	return r
}

func TestGetCurrent_KnownTicker(t *testing.T) {
	repo := &fakeScores{records: map[string]*contracts.ScoreRecord{
		"AAPL": {
			Ticker:          "AAPL",
			CalculationDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			CompositeScore:  68.65,
			TechnicalResult: contracts.DomainResult{DataQuality: 100, Status: contracts.StatusSuccess},
		},
	}}
	router := scoresRouter(NewScoresHandler(repo, testLog()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scores/aapl", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["ticker"] != "AAPL" {
		t.Errorf("ticker = %v, want AAPL (lowercase path should be uppercased)", body["ticker"])
	}
	if body["composite_score"] != 68.65 {
		t.Errorf("composite = %v, want 68.65", body["composite_score"])
	}
}

func TestGetCurrent_UnknownTickerIs404(t *testing.T) {
	router := scoresRouter(NewScoresHandler(&fakeScores{records: map[string]*contracts.ScoreRecord{}}, testLog()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scores/ZZZZ", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetHistory_BadDateIs400(t *testing.T) {
	router := scoresRouter(NewScoresHandler(&fakeScores{}, testLog()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/scores/AAPL/history?from=yesterday", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStatus_ReportsQuotaAndRates(t *testing.T) {
	tracker := quota.New(quota.RealClock(), nil, testLog())
	tracker.Register("fmp", quota.Limits{Daily: 250, PerMinute: 10})

	repo := &fakeScores{rates: map[string]float64{"technical": 0.95}}
	h := NewStatusHandler(tracker, repo, testLog())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest("GET", "/api/v1/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Quota []quota.Usage      `json:"quota"`
		Rates map[string]float64 `json:"domain_success_rates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Quota) != 1 || body.Quota[0].Provider != "fmp" {
		t.Errorf("quota = %+v, want one fmp entry", body.Quota)
	}
	if body.Rates["technical"] != 0.95 {
		t.Errorf("rates = %+v", body.Rates)
	}
}
