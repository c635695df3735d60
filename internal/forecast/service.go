package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/spending-forecast/internal/artifacts"
	"github.com/dvloznov/spending-forecast/internal/config"
	"github.com/dvloznov/spending-forecast/internal/features"
	"github.com/dvloznov/spending-forecast/internal/infra/bigquery"
	"github.com/dvloznov/spending-forecast/internal/logger"
)

// Service wires the transaction store, the feature pipeline, training and
// the artifact store into the user-facing operations.
type Service struct {
	Repo  bigquery.TransactionRepository
	Store artifacts.Store
	Cfg   config.Config
}

// NewService assembles a service from its dependencies.
func NewService(repo bigquery.TransactionRepository, store artifacts.Store, cfg config.Config) *Service {
	return &Service{Repo: repo, Store: store, Cfg: cfg}
}

// engineerOptions maps the pipeline configuration onto feature-engineering
// options.
func (s *Service) engineerOptions() features.Options {
	opts := features.DefaultOptions()
	opts.SalaryAmount = s.Cfg.Pipeline.SalaryAmount
	opts.CycleDays = s.Cfg.Pipeline.CycleDays
	opts.ClipThreshold = s.Cfg.Pipeline.ClipThreshold
	return opts
}

// EngineerUser fetches a user's transactions and runs the full feature
// pipeline over them.
func (s *Service) EngineerUser(ctx context.Context, userID string) ([]features.Row, error) {
	txs, err := s.Repo.ListUserTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("engineer features for %s: %w", userID, err)
	}
	rows, err := features.EngineerAll(txs, s.engineerOptions())
	if err != nil {
		return nil, fmt.Errorf("engineer features for %s: %w", userID, err)
	}
	return rows, nil
}

// TrainUser runs the end-to-end training flow for one user: fetch, engineer,
// select the best model and persist the fitted pipeline. It returns the
// saved artifact.
func (s *Service) TrainUser(ctx context.Context, userID string) (*Artifact, error) {
	log := logger.FromContext(ctx)

	rows, err := s.EngineerUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("user_id", userID).
		Int("rows", len(rows)).
		Msg("feature table engineered")

	cfg := TrainConfig{
		TestFraction:    s.Cfg.Training.TestFraction,
		Seed:            s.Cfg.Training.RandomSeed,
		CVFolds:         s.Cfg.Training.CVFolds,
		MinTrainingRows: s.Cfg.Training.MinTrainingRows,
		Candidates:      DefaultCandidates(),
	}
	result, err := TrainAndSelect(ctx, rows, cfg)
	if err != nil {
		return nil, fmt.Errorf("train for %s: %w", userID, err)
	}

	artifact := &Artifact{
		UserID:        userID,
		CandidateName: result.Winner.Name,
		Params:        result.Winner.Params,
		Features:      result.Features,
		Preprocessor:  result.Preprocessor,
		Estimator:     result.Estimator,
		History:       BuildUserHistory(rows, s.Cfg.Pipeline.SalaryAmount, s.Cfg.Pipeline.CycleDays),
		TrainedAt:     time.Now().UTC(),
		TestMSE:       result.Winner.MSE,
		TestR2:        result.Winner.R2,
	}
	if err := PersistModel(ctx, s.Store, artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// Forecast predicts the user's spending for the requested number of future
// calendar months using the saved pipeline. A non-positive months falls back
// to the configured default. Training must have run first; a missing artifact
// surfaces as artifacts.NotFoundError.
func (s *Service) Forecast(ctx context.Context, userID string, months int) ([]Prediction, error) {
	if months <= 0 {
		months = s.Cfg.Forecast.Months
	}
	periods := FuturePeriods(time.Now().UTC(), months)
	return PredictFuture(ctx, s.Store, userID, periods)
}
