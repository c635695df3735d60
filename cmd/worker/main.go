package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-forecast/internal/artifacts"
	"github.com/dvloznov/spending-forecast/internal/config"
	"github.com/dvloznov/spending-forecast/internal/forecast"
	infraBQ "github.com/dvloznov/spending-forecast/internal/infra/bigquery"
	"github.com/dvloznov/spending-forecast/internal/jobs"
	"github.com/dvloznov/spending-forecast/internal/jobs/inmemory"
	"github.com/dvloznov/spending-forecast/internal/logger"
)

func main() {
	log := logger.New()

	users := flag.String("users", "", "Comma-separated user IDs to enqueue training jobs for at startup")
	workers := flag.Int("workers", 2, "Number of concurrent training workers")
	flag.Parse()

	// In production, this would be replaced with Cloud Tasks or Pub/Sub.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, *workers, jobStore)

	log.Info().Msg("Starting training worker service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, cleanup, err := buildService(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer cleanup()

	handler := func(ctx context.Context, job jobs.Job) error {
		trainJob, ok := job.(*jobs.TrainModelJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", trainJob.JobID).
			Str("user_id", trainJob.UserID).
			Msg("Processing training job")

		artifact, err := svc.TrainUser(ctx, trainJob.UserID)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", trainJob.JobID).
				Str("user_id", trainJob.UserID).
				Msg("Training failed")
			return err
		}

		log.Info().
			Str("job_id", trainJob.JobID).
			Str("user_id", trainJob.UserID).
			Str("model", artifact.CandidateName).
			Float64("test_mse", artifact.TestMSE).
			Msg("Training completed successfully")
		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	for _, userID := range splitUsers(*users) {
		job := &jobs.TrainModelJob{UserID: userID}
		if err := jobQueue.PublishTrainModel(ctx, job); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue training job")
			continue
		}
		log.Info().Str("job_id", job.JobID).Str("user_id", userID).Msg("Training job enqueued")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker service exited")
}

// buildService assembles the forecasting service from configuration. The
// returned cleanup closes the BigQuery client and, for the GCS backend, the
// storage client.
func buildService(ctx context.Context, log zerolog.Logger) (*forecast.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	repo, err := infraBQ.NewTransactionRepository(ctx, cfg.GCP.ProjectID, cfg.GCP.DatasetID, cfg.GCP.TransactionsTable)
	if err != nil {
		return nil, nil, err
	}

	var store artifacts.Store
	var closeStore func()
	switch cfg.Artifacts.Backend {
	case "gcs":
		gcs, err := artifacts.NewGCSStore(ctx, cfg.GCP.ArtifactBucket, cfg.GCP.ArtifactPrefix)
		if err != nil {
			repo.Close()
			return nil, nil, err
		}
		store = gcs
		closeStore = func() {
			if err := gcs.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close artifact store")
			}
		}
	default:
		local, err := artifacts.NewLocalStore(cfg.Artifacts.LocalDir)
		if err != nil {
			repo.Close()
			return nil, nil, err
		}
		store = local
		closeStore = func() {}
	}

	cleanup := func() {
		closeStore()
		if err := repo.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close transaction repository")
		}
	}
	return forecast.NewService(repo, store, cfg), cleanup, nil
}

func splitUsers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
