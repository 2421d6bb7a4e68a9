package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/funddash/internal/fetch"
	"github.com/wonny/funddash/internal/scheduler"
	"github.com/wonny/funddash/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the job scheduler",
	Long: `Runs the cron scheduler in the foreground:

  data_collection  21:00 UTC daily   fetch provider data
  daily_scoring    21:30 UTC daily   compute and upsert scores
  history_prune    03:00 UTC Sunday  trim score history

Example:
  go run ./cmd/funddash scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== funddash Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log)

	collectionJob := jobs.NewCollectionJob(a.collector, a.tracker, fetch.Config{
		Workers:   a.cfg.Scoring.Workers,
		BatchSize: 100,
	}, a.metrics, a.log)
	scoringJob := jobs.NewScoringJob(a.orchestrator, a.cfg.Scoring, a.log)
	maintenanceJob := jobs.NewMaintenanceJob(a.scores, a.cfg.Scoring.RetentionDays, a.log)

	for _, job := range []scheduler.Job{collectionJob, scoringJob, maintenanceJob} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job: %w", err)
		}
	}

	sched.Start()
	fmt.Println("\nScheduler running, press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
