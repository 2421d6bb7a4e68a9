package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/wonny/funddash/internal/scoring"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/logger"
)

// RunsHandler triggers scoring runs over HTTP.
type RunsHandler struct {
	orchestrator *scoring.Orchestrator
	cfg          config.ScoringConfig
	logger       *logger.Logger
	running      atomic.Bool
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(orch *scoring.Orchestrator, cfg config.ScoringConfig, log *logger.Logger) *RunsHandler {
	return &RunsHandler{orchestrator: orch, cfg: cfg, logger: log}
}

type runRequest struct {
	Force      bool `json:"force"`
	MaxTickers int  `json:"max_tickers"`
}

// Trigger starts a scoring run in the background. At most one run is
// accepted at a time; a second request gets 409.
// POST /api/v1/runs
func (h *RunsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil {
		// An empty body means default options
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if !h.running.CompareAndSwap(false, true) {
		respondError(w, http.StatusConflict, "a scoring run is already in progress")
		return
	}

	opts := scoring.RunOptions{
		Workers:    h.cfg.Workers,
		MaxTickers: h.cfg.MaxTickers,
		TimeBudget: h.cfg.TimeBudget,
		Force:      req.Force,
	}
	if req.MaxTickers > 0 {
		opts.MaxTickers = req.MaxTickers
	}

	go func() {
		defer h.running.Store(false)

		summary, err := h.orchestrator.Run(context.Background(), opts)
		if err != nil {
			h.logger.WithError(err).Error("Triggered scoring run failed")
			return
		}
		h.logger.WithFields(map[string]interface{}{
			"state":     string(summary.State),
			"succeeded": summary.Succeeded,
			"partial":   summary.Partial,
			"failed":    summary.Failed,
			"skipped":   summary.Skipped,
		}).Info("Triggered scoring run finished")
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"force":  req.Force,
	})
}
