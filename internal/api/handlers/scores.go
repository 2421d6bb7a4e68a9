package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
)

// ScoresHandler serves computed score records.
type ScoresHandler struct {
	scores contracts.ScoreRepository
	logger *logger.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(scores contracts.ScoreRepository, log *logger.Logger) *ScoresHandler {
	return &ScoresHandler{scores: scores, logger: log}
}

// GetCurrent returns the latest score record for a ticker.
// GET /api/v1/scores/{ticker}
func (h *ScoresHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	record, err := h.scores.GetCurrent(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "ticker not scored")
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to load current score")
		respondError(w, http.StatusInternalServerError, "failed to load score")
		return
	}

	respondJSON(w, http.StatusOK, scoreResponse(record))
}

// GetHistory returns score history for a ticker. Range defaults to the
// trailing 90 days; override with from/to query params (YYYY-MM-DD).
// GET /api/v1/scores/{ticker}/history
func (h *ScoresHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -90)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date")
			return
		}
		to = t
	}

	records, err := h.scores.GetHistorical(r.Context(), ticker, from, to)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to load score history")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	out := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		out = append(out, scoreResponse(record))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"scores": out,
	})
}

func scoreResponse(s *contracts.ScoreRecord) map[string]interface{} {
	return map[string]interface{}{
		"ticker":           s.Ticker,
		"calculation_date": s.CalculationDate.Format("2006-01-02"),
		"composite_score":  s.CompositeScore,
		"technical": map[string]interface{}{
			"overall":      s.Technical.Overall,
			"trend":        s.Technical.TrendScore,
			"momentum":     s.Technical.MomentumScore,
			"volatility":   s.Technical.VolatilityScore,
			"volume":       s.Technical.VolumeScore,
			"rsi_signal":   s.Technical.RSISignal,
			"macd_signal":  s.Technical.MACDSignal,
			"bollinger":    s.Technical.BollingerSignal,
			"data_quality": s.TechnicalResult.DataQuality,
			"status":       string(s.TechnicalResult.Status),
		},
		"fundamental": map[string]interface{}{
			"overall":       s.Fundamental.Overall,
			"valuation":     s.Fundamental.ValuationScore,
			"profitability": s.Fundamental.ProfitabilityScore,
			"growth":        s.Fundamental.GrowthScore,
			"leverage":      s.Fundamental.LeverageScore,
			"liquidity":     s.Fundamental.LiquidityScore,
			"cash_flow":     s.Fundamental.CashFlowScore,
			"efficiency":    s.Fundamental.EfficiencyScore,
			"data_quality":  s.FundamentalResult.DataQuality,
			"status":        string(s.FundamentalResult.Status),
		},
		"analyst": map[string]interface{}{
			"overall":       s.Analyst.Overall,
			"consensus":     s.Analyst.ConsensusScore,
			"target_upside": s.Analyst.TargetUpside,
			"revisions":     s.Analyst.RevisionScore,
			"surprise":      s.Analyst.SurpriseScore,
			"coverage":      s.Analyst.CoverageScore,
			"data_quality":  s.AnalystResult.DataQuality,
			"status":        string(s.AnalystResult.Status),
		},
		"updated_at": s.UpdatedAt,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
