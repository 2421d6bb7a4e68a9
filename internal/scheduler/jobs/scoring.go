package jobs

import (
	"context"

	"github.com/wonny/funddash/internal/scoring"
	"github.com/wonny/funddash/pkg/config"
	"github.com/wonny/funddash/pkg/logger"
)

// ScoringJob runs the daily scoring pass after the US market close.
type ScoringJob struct {
	orchestrator *scoring.Orchestrator
	cfg          config.ScoringConfig
	logger       *logger.Logger
}

// NewScoringJob creates the daily scoring job.
func NewScoringJob(orch *scoring.Orchestrator, cfg config.ScoringConfig, log *logger.Logger) *ScoringJob {
	return &ScoringJob{
		orchestrator: orch,
		cfg:          cfg,
		logger:       log.WithField("job", "daily_scoring"),
	}
}

func (j *ScoringJob) Name() string { return "daily_scoring" }

// Schedule fires at 21:30 UTC, after the US close and the data
// collection job.
func (j *ScoringJob) Schedule() string { return "0 30 21 * * *" }

func (j *ScoringJob) Run(ctx context.Context) error {
	summary, err := j.orchestrator.Run(ctx, scoring.RunOptions{
		Workers:    j.cfg.Workers,
		MaxTickers: j.cfg.MaxTickers,
		TimeBudget: j.cfg.TimeBudget,
	})
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"state":     string(summary.State),
		"succeeded": summary.Succeeded,
		"partial":   summary.Partial,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"elapsed":   summary.Elapsed.String(),
	}).Info("Daily scoring finished")
	return nil
}
