package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// Params is one point in a hyperparameter grid.
type Params map[string]float64

// Factory builds a fresh, unfitted estimator from a parameter point.
type Factory func(p Params) Estimator

// TrainTestSplit returns shuffled train and test index sets. testFraction
// of the rows (rounded, at least one per side when n >= 2) go to the test
// set. The same seed always produces the same split.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	testN := int(math.Round(float64(n) * testFraction))
	if n >= 2 {
		if testN == 0 {
			testN = 1
		}
		if testN == n {
			testN = n - 1
		}
	}
	return perm[testN:], perm[:testN]
}

// kFold partitions n shuffled row indices into k folds of near-equal size.
func kFold(n, k int, seed int64) [][]int {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	folds := make([][]int, k)
	for i, idx := range perm {
		folds[i%k] = append(folds[i%k], idx)
	}
	return folds
}

// GridSearch selects the parameter point with the lowest mean
// cross-validated MSE, then refits an estimator with those parameters on
// the full input. Ties go to the earlier grid entry.
type GridSearch struct {
	Factory Factory
	Grid    []Params
	Folds   int
	Seed    int64
}

// GridSearchResult holds the winning parameters and the refit estimator.
type GridSearchResult struct {
	BestParams Params
	// BestCVMSE is the winning mean cross-validated MSE.
	BestCVMSE float64
	Estimator Estimator
}

// Fit runs the search over x, y.
func (g *GridSearch) Fit(x [][]float64, y []float64) (*GridSearchResult, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return nil, fmt.Errorf("grid search: bad input shape: %d rows, %d targets", n, len(y))
	}
	if len(g.Grid) == 0 {
		return nil, fmt.Errorf("grid search: empty grid")
	}

	folds := g.Folds
	if folds < 2 {
		folds = 2
	}
	if folds > n {
		folds = n
	}

	var (
		bestParams Params
		bestScore  = math.Inf(1)
	)

	if folds < 2 {
		// Single row: no held-out fold possible, take the first point.
		bestParams = g.Grid[0]
		bestScore = math.NaN()
	} else {
		foldSets := kFold(n, folds, g.Seed)
		for _, params := range g.Grid {
			var total float64
			var evaluated int

			for f := range foldSets {
				var trainIdx, testIdx []int
				testIdx = foldSets[f]
				for other := range foldSets {
					if other != f {
						trainIdx = append(trainIdx, foldSets[other]...)
					}
				}
				if len(trainIdx) == 0 || len(testIdx) == 0 {
					continue
				}

				est := g.Factory(params)
				if err := est.Fit(gather(x, trainIdx), gatherY(y, trainIdx)); err != nil {
					return nil, fmt.Errorf("grid search: fold fit: %w", err)
				}
				pred := est.Predict(gather(x, testIdx))
				total += MeanSquaredError(gatherY(y, testIdx), pred)
				evaluated++
			}

			if evaluated == 0 {
				continue
			}
			score := total / float64(evaluated)
			if score < bestScore {
				bestScore = score
				bestParams = params
			}
		}
		if bestParams == nil {
			bestParams = g.Grid[0]
		}
	}

	final := g.Factory(bestParams)
	if err := final.Fit(x, y); err != nil {
		return nil, fmt.Errorf("grid search: refit: %w", err)
	}
	return &GridSearchResult{
		BestParams: bestParams,
		BestCVMSE:  bestScore,
		Estimator:  final,
	}, nil
}

func gather(x [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = x[idx]
	}
	return out
}

func gatherY(y []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}
