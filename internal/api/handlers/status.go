package handlers

import (
	"net/http"
	"time"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/logger"
)

// StatusHandler reports quota usage and pipeline health.
type StatusHandler struct {
	tracker *quota.Tracker
	scores  contracts.ScoreRepository
	logger  *logger.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(tracker *quota.Tracker, scores contracts.ScoreRepository, log *logger.Logger) *StatusHandler {
	return &StatusHandler{tracker: tracker, scores: scores, logger: log}
}

// Get returns quota usage per provider and today's domain success rates.
// GET /api/v1/status
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	rates, err := h.scores.DomainSuccessRates(ctx, today)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load domain success rates")
		rates = map[string]float64{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":                 today.Format("2006-01-02"),
		"quota":                h.tracker.Usage(ctx),
		"domain_success_rates": rates,
	})
}
