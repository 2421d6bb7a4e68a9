package jobs

import (
	"context"

	"github.com/wonny/funddash/internal/fetch"
	"github.com/wonny/funddash/internal/quota"
	"github.com/wonny/funddash/pkg/logger"
	"github.com/wonny/funddash/pkg/metrics"
)

// CollectionJob refreshes raw provider data ahead of the scoring run.
type CollectionJob struct {
	collector *fetch.Collector
	tracker   *quota.Tracker
	cfg       fetch.Config
	metrics   *metrics.Recorder
	logger    *logger.Logger
}

// NewCollectionJob creates the data collection job. rec may be nil.
func NewCollectionJob(collector *fetch.Collector, tracker *quota.Tracker, cfg fetch.Config, rec *metrics.Recorder, log *logger.Logger) *CollectionJob {
	return &CollectionJob{
		collector: collector,
		tracker:   tracker,
		cfg:       cfg,
		metrics:   rec,
		logger:    log.WithField("job", "data_collection"),
	}
}

func (j *CollectionJob) Name() string { return "data_collection" }

// Schedule fires at 21:00 UTC, right after the US close.
func (j *CollectionJob) Schedule() string { return "0 0 21 * * *" }

func (j *CollectionJob) Run(ctx context.Context) error {
	results, err := j.collector.CollectAll(ctx, j.cfg)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}

	if j.metrics != nil {
		for _, usage := range j.tracker.Usage(ctx) {
			j.metrics.SetQuotaUsed(usage.Provider, usage.CallsUsed)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers": len(results),
		"failed":  failed,
	}).Info("Data collection finished")
	return nil
}
