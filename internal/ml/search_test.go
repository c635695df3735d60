package ml

import (
	"testing"
)

func TestTrainTestSplit(t *testing.T) {
	train, test := TrainTestSplit(10, 0.5, 42)
	if len(train) != 5 || len(test) != 5 {
		t.Fatalf("split sizes = %d/%d, want 5/5", len(train), len(test))
	}

	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	if len(seen) != 10 {
		t.Fatalf("split covers %d indices, want 10", len(seen))
	}
}

func TestTrainTestSplit_Reproducible(t *testing.T) {
	a1, b1 := TrainTestSplit(20, 0.3, 42)
	a2, b2 := TrainTestSplit(20, 0.3, 42)
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatal("train split not reproducible for identical seeds")
		}
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatal("test split not reproducible for identical seeds")
		}
	}
}

func TestTrainTestSplit_BothSidesNonEmpty(t *testing.T) {
	for _, n := range []int{2, 3, 5} {
		train, test := TrainTestSplit(n, 0.5, 1)
		if len(train) == 0 || len(test) == 0 {
			t.Errorf("n=%d: empty side (%d/%d)", n, len(train), len(test))
		}
	}
}

func TestKFold(t *testing.T) {
	folds := kFold(10, 3, 42)
	if len(folds) != 3 {
		t.Fatalf("got %d folds, want 3", len(folds))
	}
	seen := make(map[int]bool)
	for _, fold := range folds {
		for _, i := range fold {
			if seen[i] {
				t.Fatalf("index %d appears in two folds", i)
			}
			seen[i] = true
		}
	}
	if len(seen) != 10 {
		t.Fatalf("folds cover %d indices, want 10", len(seen))
	}
}

func TestGridSearch_PicksBestAlpha(t *testing.T) {
	x, y := linearData()

	gs := GridSearch{
		Factory: func(p Params) Estimator {
			return &Ridge{Alpha: p["alpha"]}
		},
		Grid: []Params{
			{"alpha": 0.01},
			{"alpha": 1e6},
		},
		Folds: 4,
		Seed:  42,
	}
	res, err := gs.Fit(x, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// The data is exactly linear; the barely-regularized model must win.
	if res.BestParams["alpha"] != 0.01 {
		t.Errorf("best alpha = %g, want 0.01", res.BestParams["alpha"])
	}
	pred := res.Estimator.Predict(x)
	if mse := MeanSquaredError(y, pred); mse > 1 {
		t.Errorf("refit MSE = %g, want small", mse)
	}
}

func TestGridSearch_SingleParamGrid(t *testing.T) {
	x, y := linearData()

	gs := GridSearch{
		Factory: func(p Params) Estimator {
			return &RandomForest{NumTrees: int(p["n_estimators"]), MaxDepth: int(p["max_depth"]), Seed: 42}
		},
		Grid:  []Params{{"n_estimators": 10, "max_depth": 3}},
		Folds: 3,
		Seed:  42,
	}
	res, err := gs.Fit(x, y)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.BestParams["n_estimators"] != 10 {
		t.Errorf("best n_estimators = %g, want 10", res.BestParams["n_estimators"])
	}
	if res.Estimator == nil {
		t.Fatal("missing refit estimator")
	}
}

func TestGridSearch_EmptyGrid(t *testing.T) {
	gs := GridSearch{
		Factory: func(p Params) Estimator { return &LinearRegression{} },
		Folds:   3,
	}
	if _, err := gs.Fit([][]float64{{1}}, []float64{1}); err == nil {
		t.Error("expected error for empty grid")
	}
}
