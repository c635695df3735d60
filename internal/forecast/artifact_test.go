package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/spending-forecast/internal/artifacts"
	"github.com/dvloznov/spending-forecast/internal/ml"
)

func TestArtifact_GobRoundTrip(t *testing.T) {
	rows := syntheticRows(t, "gob@example.com", 6)
	result, err := TrainAndSelect(context.Background(), rows, DefaultTrainConfig())
	if err != nil {
		t.Fatalf("TrainAndSelect: %v", err)
	}

	original := &Artifact{
		UserID:        "gob@example.com",
		CandidateName: result.Winner.Name,
		Params:        result.Winner.Params,
		Features:      result.Features,
		Preprocessor:  result.Preprocessor,
		Estimator:     result.Estimator,
		History:       BuildUserHistory(rows, 5000, 30),
		TrainedAt:     time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC),
		TestMSE:       result.Winner.MSE,
		TestR2:        result.Winner.R2,
	}

	data, err := EncodeArtifact(original)
	if err != nil {
		t.Fatalf("EncodeArtifact: %v", err)
	}
	decoded, err := DecodeArtifact(data)
	if err != nil {
		t.Fatalf("DecodeArtifact: %v", err)
	}

	if decoded.UserID != original.UserID || decoded.CandidateName != original.CandidateName {
		t.Errorf("identity mismatch: %+v", decoded)
	}
	if decoded.Estimator == nil {
		t.Fatal("estimator lost in round trip")
	}
	if decoded.History != original.History {
		t.Errorf("history mismatch: %+v vs %+v", decoded.History, original.History)
	}

	// The decoded pipeline must predict identically to the original.
	ds := BuildDataset(rows[:5], original.Features)
	xOrig, err := original.Preprocessor.Transform(ds)
	if err != nil {
		t.Fatalf("original transform: %v", err)
	}
	xDec, err := decoded.Preprocessor.Transform(ds)
	if err != nil {
		t.Fatalf("decoded transform: %v", err)
	}
	pOrig := original.Estimator.Predict(xOrig)
	pDec := decoded.Estimator.Predict(xDec)
	for i := range pOrig {
		if pOrig[i] != pDec[i] {
			t.Errorf("prediction %d diverged: %g vs %g", i, pOrig[i], pDec[i])
		}
	}
}

func TestArtifact_GobHandlesEveryEstimatorKind(t *testing.T) {
	estimators := []ml.Estimator{
		&ml.LinearRegression{Coef: []float64{1, 2}, Intercept: 3},
		&ml.Ridge{Alpha: 0.5, Coef: []float64{1}, Intercept: 1},
		&ml.Lasso{Alpha: 0.1, Coef: []float64{0, 2}, Intercept: -1},
		&ml.RandomForest{NumTrees: 1, MaxDepth: 1, Seed: 1},
	}

	for _, est := range estimators {
		a := &Artifact{UserID: "u", Estimator: est}
		data, err := EncodeArtifact(a)
		if err != nil {
			t.Fatalf("EncodeArtifact(%T): %v", est, err)
		}
		back, err := DecodeArtifact(data)
		if err != nil {
			t.Fatalf("DecodeArtifact(%T): %v", est, err)
		}
		if back.Estimator == nil {
			t.Errorf("%T: estimator lost", est)
		}
	}
}

func TestBuildUserHistory(t *testing.T) {
	rows := syntheticRows(t, "hist@example.com", 6)
	h := BuildUserHistory(rows, 5000, 30)

	if !h.HasSalary {
		t.Fatal("HasSalary = false for a user with monthly salary rows")
	}
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !h.LastSalaryDate.Equal(want) {
		t.Errorf("LastSalaryDate = %v, want %v", h.LastSalaryDate, want)
	}
	if h.AvgExpense <= 0 || h.AvgTxCount <= 0 {
		t.Errorf("aggregates not populated: %+v", h)
	}
	if h.SalaryAmount != 5000 || h.CycleDays != 30 {
		t.Errorf("config not carried: %+v", h)
	}
}

func TestBuildUserHistory_Empty(t *testing.T) {
	h := BuildUserHistory(nil, 5000, 30)
	if h.HasSalary || h.AvgExpense != 0 || h.AvgTxCount != 0 {
		t.Errorf("empty history not zeroed: %+v", h)
	}
}

func TestPersistAndLoadArtifact(t *testing.T) {
	store, err := artifacts.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	a := &Artifact{
		UserID:        "store@example.com",
		CandidateName: "linear_regression",
		Estimator:     &ml.LinearRegression{Coef: []float64{1}, Intercept: 2},
	}
	if err := PersistModel(context.Background(), store, a); err != nil {
		t.Fatalf("PersistModel: %v", err)
	}

	back, err := LoadArtifact(context.Background(), store, "store@example.com")
	if err != nil {
		t.Fatalf("LoadArtifact: %v", err)
	}
	if back.UserID != a.UserID || back.CandidateName != a.CandidateName {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
