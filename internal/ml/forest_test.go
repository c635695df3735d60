package ml

import (
	"math"
	"testing"
)

// Step function: y jumps at x = 0.5.
func stepData() ([][]float64, []float64) {
	var x [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		v := float64(i) / 40
		x = append(x, []float64{v})
		if v <= 0.5 {
			y = append(y, 0)
		} else {
			y = append(y, 10)
		}
	}
	return x, y
}

func TestRandomForest_FitsStepFunction(t *testing.T) {
	x, y := stepData()

	rf := RandomForest{NumTrees: 30, MaxDepth: 4, Seed: 42}
	if err := rf.Fit(x, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	pred := rf.Predict([][]float64{{0.1}, {0.9}})
	if math.Abs(pred[0]-0) > 1.5 {
		t.Errorf("predict(0.1) = %g, want ~0", pred[0])
	}
	if math.Abs(pred[1]-10) > 1.5 {
		t.Errorf("predict(0.9) = %g, want ~10", pred[1])
	}
}

func TestRandomForest_DeterministicWithSeed(t *testing.T) {
	x, y := stepData()

	a := RandomForest{NumTrees: 10, MaxDepth: 3, Seed: 7}
	b := RandomForest{NumTrees: 10, MaxDepth: 3, Seed: 7}
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("Fit a: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("Fit b: %v", err)
	}

	pa := a.Predict(x)
	pb := b.Predict(x)
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("row %d: %g != %g for identical seeds", i, pa[i], pb[i])
		}
	}
}

func TestRandomForest_ConstantTarget(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{5, 5, 5, 5}

	rf := RandomForest{NumTrees: 5, MaxDepth: 3, Seed: 1}
	if err := rf.Fit(x, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, p := range rf.Predict(x) {
		if p != 5 {
			t.Errorf("prediction = %g, want 5", p)
		}
	}
}

func TestRandomForest_BadConfig(t *testing.T) {
	x := [][]float64{{1}}
	y := []float64{1}

	if err := (&RandomForest{NumTrees: 0, MaxDepth: 3}).Fit(x, y); err == nil {
		t.Error("expected error for zero trees")
	}
	if err := (&RandomForest{NumTrees: 5, MaxDepth: 0}).Fit(x, y); err == nil {
		t.Error("expected error for zero depth")
	}
}

func TestGrowTree_RespectsMaxDepth(t *testing.T) {
	x, y := stepData()
	indices := make([]int, len(x))
	for i := range indices {
		indices[i] = i
	}

	root := growTree(x, y, indices, 1, 1)
	if root.Leaf {
		t.Fatal("depth-1 tree should split once")
	}
	if !root.Left.Leaf || !root.Right.Leaf {
		t.Error("children of a depth-1 tree must be leaves")
	}
	if math.Abs(root.Threshold-0.5) > 0.05 {
		t.Errorf("split threshold = %g, want ~0.5", root.Threshold)
	}
}
