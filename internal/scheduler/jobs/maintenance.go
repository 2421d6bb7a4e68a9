package jobs

import (
	"context"

	"github.com/wonny/funddash/internal/contracts"
	"github.com/wonny/funddash/pkg/logger"
)

// MaintenanceJob prunes score history beyond the retention window.
type MaintenanceJob struct {
	scores        contracts.ScoreRepository
	retentionDays int
	logger        *logger.Logger
}

// NewMaintenanceJob creates the history pruning job.
func NewMaintenanceJob(scores contracts.ScoreRepository, retentionDays int, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		scores:        scores,
		retentionDays: retentionDays,
		logger:        log.WithField("job", "history_prune"),
	}
}

func (j *MaintenanceJob) Name() string { return "history_prune" }

// Schedule fires Sundays at 03:00 UTC.
func (j *MaintenanceJob) Schedule() string { return "0 0 3 * * 0" }

func (j *MaintenanceJob) Run(ctx context.Context) error {
	deleted, err := j.scores.Prune(ctx, j.retentionDays)
	if err != nil {
		return err
	}

	if deleted > 0 {
		j.logger.WithField("deleted", deleted).Info("Pruned score history")
	}
	return nil
}
