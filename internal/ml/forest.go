package ml

import (
	"fmt"
	"math/rand"
	"sort"
)

// RandomForest is a bagged ensemble of variance-reducing regression trees.
type RandomForest struct {
	NumTrees int
	MaxDepth int
	// MinLeaf is the minimum number of samples in a leaf. Zero means 1.
	MinLeaf int
	Seed    int64

	Trees []*TreeNode
}

// TreeNode is one node of a regression tree. Exported for gob.
type TreeNode struct {
	Leaf      bool
	Value     float64 // leaf prediction: mean target of the node's samples
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

func (m *RandomForest) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("random forest: bad input shape: %d rows, %d targets", n, len(y))
	}
	if m.NumTrees <= 0 {
		return fmt.Errorf("random forest: NumTrees must be positive, got %d", m.NumTrees)
	}
	if m.MaxDepth <= 0 {
		return fmt.Errorf("random forest: MaxDepth must be positive, got %d", m.MaxDepth)
	}
	minLeaf := m.MinLeaf
	if minLeaf <= 0 {
		minLeaf = 1
	}

	rng := rand.New(rand.NewSource(m.Seed))
	m.Trees = make([]*TreeNode, 0, m.NumTrees)
	for t := 0; t < m.NumTrees; t++ {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		m.Trees = append(m.Trees, growTree(x, y, indices, m.MaxDepth, minLeaf))
	}
	return nil
}

func (m *RandomForest) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		var sum float64
		for _, tree := range m.Trees {
			sum += tree.predict(row)
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out
}

func (n *TreeNode) predict(row []float64) float64 {
	node := n
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// growTree builds a regression tree on the sample at indices, splitting on
// the (feature, threshold) pair that minimizes the summed squared error of
// the two children.
func growTree(x [][]float64, y []float64, indices []int, depth, minLeaf int) *TreeNode {
	mean := meanAt(y, indices)
	if depth == 0 || len(indices) < 2*minLeaf || constantAt(y, indices) {
		return &TreeNode{Leaf: true, Value: mean}
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, sseAt(y, indices, mean)
	p := len(x[0])

	for j := 0; j < p; j++ {
		sorted := make([]int, len(indices))
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool { return x[sorted[a]][j] < x[sorted[b]][j] })

		// Prefix sums over the sorted order allow O(1) split evaluation.
		prefixSum := make([]float64, len(sorted)+1)
		prefixSq := make([]float64, len(sorted)+1)
		for i, idx := range sorted {
			prefixSum[i+1] = prefixSum[i] + y[idx]
			prefixSq[i+1] = prefixSq[i] + y[idx]*y[idx]
		}
		total := float64(len(sorted))

		for i := minLeaf; i <= len(sorted)-minLeaf; i++ {
			left := x[sorted[i-1]][j]
			right := x[sorted[i]][j]
			if left == right {
				continue
			}

			nl, nr := float64(i), total-float64(i)
			sl, sr := prefixSum[i], prefixSum[len(sorted)]-prefixSum[i]
			ql, qr := prefixSq[i], prefixSq[len(sorted)]-prefixSq[i]
			score := (ql - sl*sl/nl) + (qr - sr*sr/nr)

			if score < bestScore-1e-12 {
				bestScore = score
				bestFeature = j
				bestThreshold = (left + right) / 2
			}
		}
	}

	if bestFeature < 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	var leftIdx, rightIdx []int
	for _, idx := range indices {
		if x[idx][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, idx)
		} else {
			rightIdx = append(rightIdx, idx)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      growTree(x, y, leftIdx, depth-1, minLeaf),
		Right:     growTree(x, y, rightIdx, depth-1, minLeaf),
	}
}

func meanAt(y []float64, indices []int) float64 {
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func sseAt(y []float64, indices []int, mean float64) float64 {
	var ss float64
	for _, i := range indices {
		d := y[i] - mean
		ss += d * d
	}
	return ss
}

func constantAt(y []float64, indices []int) bool {
	for _, i := range indices[1:] {
		if y[i] != y[indices[0]] {
			return false
		}
	}
	return true
}
