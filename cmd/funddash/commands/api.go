package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/funddash/internal/api"
	"github.com/wonny/funddash/internal/api/handlers"
)

var apiPort string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Serves score lookups, pipeline status and run triggers.

Endpoints:
  GET  /health
  GET  /metrics                         (when METRICS_ENABLED)
  GET  /api/v1/scores/{ticker}
  GET  /api/v1/scores/{ticker}/history
  GET  /api/v1/status
  POST /api/v1/runs

Example:
  go run ./cmd/funddash api
  go run ./cmd/funddash api --port 8080`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "override the configured port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== funddash API Server ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	scoresHandler := handlers.NewScoresHandler(a.scores, a.log)
	statusHandler := handlers.NewStatusHandler(a.tracker, a.scores, a.log)
	runsHandler := handlers.NewRunsHandler(a.orchestrator, a.cfg.Scoring, a.log)

	router := api.NewRouter(scoresHandler, statusHandler, runsHandler, a.cfg.MetricsEnabled, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\nServer running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
