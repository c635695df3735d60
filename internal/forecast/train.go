package forecast

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-forecast/internal/features"
	"github.com/dvloznov/spending-forecast/internal/logger"
	"github.com/dvloznov/spending-forecast/internal/ml"
)

// minUsableRows is the hard floor below which no split or fit is attempted.
const minUsableRows = 4

// CandidateKind enumerates the closed set of model candidates.
type CandidateKind int

const (
	KindLinear CandidateKind = iota
	KindLasso
	KindRidge
	KindForest
)

// Candidate pairs a model kind with its hyperparameter search space. Every
// candidate is scored the same way: mean cross-validated MSE inside the
// grid, held-out MSE for final selection.
type Candidate struct {
	Kind CandidateKind
	Name string
	Grid []ml.Params
}

// DefaultCandidates returns the standard candidate set in selection-tie
// priority order.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Kind: KindLinear, Name: "linear_regression", Grid: []ml.Params{{}}},
		{Kind: KindLasso, Name: "lasso", Grid: alphaGrid(0.01, 0.1, 1.0, 5.0, 10.0, 50.0, 100.0)},
		{Kind: KindRidge, Name: "ridge", Grid: alphaGrid(0.1, 1.0)},
		{Kind: KindForest, Name: "random_forest", Grid: []ml.Params{
			{"n_estimators": 50, "max_depth": 5},
		}},
	}
}

func alphaGrid(alphas ...float64) []ml.Params {
	grid := make([]ml.Params, 0, len(alphas))
	for _, a := range alphas {
		grid = append(grid, ml.Params{"alpha": a})
	}
	return grid
}

// factory returns a constructor for fresh estimators of this candidate's
// kind.
func (c Candidate) factory(seed int64) ml.Factory {
	switch c.Kind {
	case KindLasso:
		return func(p ml.Params) ml.Estimator {
			return &ml.Lasso{Alpha: p["alpha"], MaxIter: 10000}
		}
	case KindRidge:
		return func(p ml.Params) ml.Estimator {
			return &ml.Ridge{Alpha: p["alpha"]}
		}
	case KindForest:
		return func(p ml.Params) ml.Estimator {
			return &ml.RandomForest{
				NumTrees: int(p["n_estimators"]),
				MaxDepth: int(p["max_depth"]),
				Seed:     seed,
			}
		}
	default:
		return func(ml.Params) ml.Estimator { return &ml.LinearRegression{} }
	}
}

// TrainConfig parameterizes training and selection.
type TrainConfig struct {
	TestFraction float64
	Seed         int64
	CVFolds      int
	// MinTrainingRows is a warning threshold, not a gate: training refuses
	// only tables too small to split at all.
	MinTrainingRows int
	Candidates      []Candidate
}

// DefaultTrainConfig mirrors the standard configuration defaults.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		TestFraction:    0.5,
		Seed:            42,
		CVFolds:         3,
		MinTrainingRows: 50,
		Candidates:      DefaultCandidates(),
	}
}

// CandidateScore is one candidate's held-out evaluation.
type CandidateScore struct {
	Name   string
	Params ml.Params
	MSE    float64
	R2     float64
}

// TrainResult is the outcome of model selection: the winning fitted
// pipeline plus every candidate's score.
type TrainResult struct {
	Winner CandidateScore
	Scores []CandidateScore

	Preprocessor *ml.ColumnTransformer
	Estimator    ml.Estimator
	Features     FeatureSet

	TrainRows int
	TestRows  int
}

// TrainAndSelect splits the engineered table, fits every candidate via
// cross-validated grid search on the training subset, scores each on the
// held-out subset by MSE and returns the winner. Ties go to the
// earlier-declared candidate.
//
// An empty or unusably small table yields an InsufficientDataError before
// any model work starts.
func TrainAndSelect(ctx context.Context, rows []features.Row, cfg TrainConfig) (*TrainResult, error) {
	log := logger.FromContext(ctx)

	if len(rows) < minUsableRows {
		return nil, &InsufficientDataError{Rows: len(rows)}
	}
	if len(rows) < cfg.MinTrainingRows {
		log.Warn().
			Int("rows", len(rows)).
			Int("recommended", cfg.MinTrainingRows).
			Msg("training on fewer rows than recommended; predictions may be unstable")
	}

	candidates := cfg.Candidates
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}

	fs := SelectFeatures(rows)
	ds := BuildDataset(rows, fs)

	trainIdx, testIdx := ml.TrainTestSplit(ds.Rows(), cfg.TestFraction, cfg.Seed)
	trainSet := ds.Subset(trainIdx)
	testSet := ds.Subset(testIdx)

	pre := ml.NewColumnTransformer(fs.Numerical, fs.Categorical)
	xTrain, err := pre.FitTransform(trainSet)
	if err != nil {
		return nil, fmt.Errorf("train: preprocess training set: %w", err)
	}
	xTest, err := pre.Transform(testSet)
	if err != nil {
		return nil, fmt.Errorf("train: preprocess evaluation set: %w", err)
	}

	result := &TrainResult{
		Preprocessor: pre,
		Features:     fs,
		TrainRows:    len(trainIdx),
		TestRows:     len(testIdx),
	}

	bestMSE := math.Inf(1)
	for _, c := range candidates {
		gs := ml.GridSearch{
			Factory: c.factory(cfg.Seed),
			Grid:    c.Grid,
			Folds:   cfg.CVFolds,
			Seed:    cfg.Seed,
		}
		fit, err := gs.Fit(xTrain, trainSet.Target)
		if err != nil {
			return nil, fmt.Errorf("train: candidate %s: %w", c.Name, err)
		}

		pred := fit.Estimator.Predict(xTest)
		score := CandidateScore{
			Name:   c.Name,
			Params: fit.BestParams,
			MSE:    ml.MeanSquaredError(testSet.Target, pred),
			R2:     ml.R2Score(testSet.Target, pred),
		}
		result.Scores = append(result.Scores, score)

		log.Info().
			Str("candidate", c.Name).
			Float64("mse", score.MSE).
			Float64("r2", score.R2).
			Msg("candidate evaluated")

		if score.MSE < bestMSE {
			bestMSE = score.MSE
			result.Winner = score
			result.Estimator = fit.Estimator
		}
	}

	log.Info().
		Str("winner", result.Winner.Name).
		Float64("mse", result.Winner.MSE).
		Float64("r2", result.Winner.R2).
		Msg("model selected")

	logFeatureImportance(log, result)
	return result, nil
}

// logFeatureImportance reports the winning model's coefficients ranked by
// absolute magnitude. Only linear-family winners carry coefficients; the
// forest winner is skipped.
func logFeatureImportance(log zerolog.Logger, result *TrainResult) {
	var coef []float64
	switch est := result.Estimator.(type) {
	case *ml.LinearRegression:
		coef = est.Coef
	case *ml.Ridge:
		coef = est.Coef
	case *ml.Lasso:
		coef = est.Coef
	default:
		return
	}

	names := result.Preprocessor.FeatureNames()
	if len(names) != len(coef) {
		return
	}

	order := make([]int, len(coef))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return math.Abs(coef[order[i]]) > math.Abs(coef[order[j]])
	})

	for rank, idx := range order {
		if rank >= 10 {
			break
		}
		log.Info().
			Str("feature", names[idx]).
			Float64("coefficient", coef[idx]).
			Msg("feature importance")
	}
}
