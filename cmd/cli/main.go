package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-forecast/internal/artifacts"
	"github.com/dvloznov/spending-forecast/internal/config"
	"github.com/dvloznov/spending-forecast/internal/features"
	"github.com/dvloznov/spending-forecast/internal/forecast"
	infraBQ "github.com/dvloznov/spending-forecast/internal/infra/bigquery"
	"github.com/dvloznov/spending-forecast/internal/logger"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "train":
		runTrain(log)
	case "predict":
		runPredict(log)
	case "features":
		runFeatures(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Spending Forecast CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  train     Train and save a spending model for a user")
	fmt.Println("  predict   Predict a user's spending for future months")
	fmt.Println("  features  Dump a user's engineered feature table as CSV")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
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

func runTrain(log zerolog.Logger) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to train a model for")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, cleanup, err := buildService(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer cleanup()

	log.Info().Str("user_id", *userID).Msg("Starting training")

	artifact, err := svc.TrainUser(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	fmt.Printf("Trained %s for %s (test MSE %.4f, R2 %.4f)\n",
		artifact.CandidateName, artifact.UserID, artifact.TestMSE, artifact.TestR2)
}

func runPredict(log zerolog.Logger) {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to predict for")
	months := fs.Int("months", 0, "Number of future months (default from config)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, cleanup, err := buildService(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer cleanup()

	predictions, err := svc.Forecast(ctx, *userID, *months)
	if err != nil {
		log.Fatal().Err(err).Msg("Prediction failed")
	}

	fmt.Printf("\n=== Predicted spending for %s ===\n", *userID)
	for _, p := range predictions {
		fmt.Printf("%s  %10.2f\n", p.PeriodStart.Format("2006-01"), p.PredictedAmount)
	}
	fmt.Println()
}

func runFeatures(log zerolog.Logger) {
	fs := flag.NewFlagSet("features", flag.ExitOnError)
	userID := fs.String("user", "", "User ID to engineer features for")
	outPath := fs.String("out", "", "Output CSV path (defaults to stdout)")
	fs.Parse(os.Args[2:])

	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, cleanup, err := buildService(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer cleanup()

	rows, err := svc.EngineerUser(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Feature engineering failed")
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		out = f
	}

	if err := writeFeatureCSV(out, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to write CSV")
	}
	if *outPath != "" {
		fmt.Printf("Wrote %d feature rows to %s\n", len(rows), *outPath)
	}
}

// writeFeatureCSV dumps the engineered table: identity columns first, then
// every numeric and categorical feature column.
func writeFeatureCSV(out *os.File, rows []features.Row) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	numeric := features.NumericColumnNames()
	categorical := features.CategoricalColumnNames()

	header := append([]string{"user_id", "date"}, numeric...)
	header = append(header, categorical...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range rows {
		r := &rows[i]
		record := []string{r.UserID, r.Date.Format("2006-01-02")}
		for _, name := range numeric {
			v, _ := features.NumericValue(r, name)
			record = append(record, strconv.FormatFloat(*v, 'g', -1, 64))
		}
		for _, name := range categorical {
			v, _ := features.CategoricalValue(r, name)
			record = append(record, v)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
