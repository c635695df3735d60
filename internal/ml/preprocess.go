package ml

import (
	"fmt"
	"math"
	"sort"
)

// ColumnTransformer is the fitted preprocessing step of a model pipeline.
// Numeric columns are mean-imputed then scaled to zero mean and unit
// variance; categorical columns are most-frequent-imputed then one-hot
// encoded. A category unseen at fit time encodes to all zeros at transform
// time, never an error.
//
// All fields are exported so a fitted transformer can be gob-serialized
// inside a model artifact.
type ColumnTransformer struct {
	NumericNames     []string
	CategoricalNames []string

	// Per numeric column.
	ImputeValues []float64 // fit-time column means over non-missing values
	ScaleMeans   []float64
	ScaleStds    []float64 // zero stddev stored as 1 so transform is a no-op

	// Per categorical column.
	ImputeModes []string
	Categories  [][]string // sorted category vocabulary per column
}

// NewColumnTransformer creates an unfitted transformer for the given column
// groups.
func NewColumnTransformer(numericNames, categoricalNames []string) *ColumnTransformer {
	return &ColumnTransformer{
		NumericNames:     numericNames,
		CategoricalNames: categoricalNames,
	}
}

// Fit learns imputation values, scaling statistics and category
// vocabularies from ds.
func (t *ColumnTransformer) Fit(ds *Dataset) error {
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("fit preprocessor: %w", err)
	}
	if ds.Rows() == 0 {
		return fmt.Errorf("fit preprocessor: empty dataset")
	}

	nNum := len(t.NumericNames)
	t.ImputeValues = make([]float64, nNum)
	t.ScaleMeans = make([]float64, nNum)
	t.ScaleStds = make([]float64, nNum)

	for j := 0; j < nNum; j++ {
		var sum float64
		var count int
		for i := range ds.Numeric {
			v := ds.Numeric[i][j]
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
		}
		if count == 0 {
			t.ImputeValues[j] = 0
		} else {
			t.ImputeValues[j] = sum / float64(count)
		}

		var mean, ss float64
		n := float64(len(ds.Numeric))
		for i := range ds.Numeric {
			mean += t.imputedAt(ds, i, j)
		}
		mean /= n
		for i := range ds.Numeric {
			d := t.imputedAt(ds, i, j) - mean
			ss += d * d
		}
		std := math.Sqrt(ss / n)
		if std == 0 {
			std = 1
		}
		t.ScaleMeans[j] = mean
		t.ScaleStds[j] = std
	}

	nCat := len(t.CategoricalNames)
	t.ImputeModes = make([]string, nCat)
	t.Categories = make([][]string, nCat)

	for j := 0; j < nCat; j++ {
		counts := make(map[string]int)
		for i := range ds.Categorical {
			v := ds.Categorical[i][j]
			if v == "" {
				continue
			}
			counts[v]++
		}

		mode, best := "", -1
		vocab := make([]string, 0, len(counts))
		for v := range counts {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		for _, v := range vocab {
			if counts[v] > best {
				mode, best = v, counts[v]
			}
		}
		t.ImputeModes[j] = mode
		t.Categories[j] = vocab
	}

	return nil
}

func (t *ColumnTransformer) imputedAt(ds *Dataset, i, j int) float64 {
	v := ds.Numeric[i][j]
	if math.IsNaN(v) {
		return t.ImputeValues[j]
	}
	return v
}

// Transform converts ds into a dense design matrix: scaled numeric columns
// followed by the one-hot blocks of each categorical column.
func (t *ColumnTransformer) Transform(ds *Dataset) ([][]float64, error) {
	if t.ScaleStds == nil && len(t.NumericNames) > 0 {
		return nil, fmt.Errorf("transform: preprocessor not fitted")
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	width := len(t.NumericNames)
	for _, vocab := range t.Categories {
		width += len(vocab)
	}

	n := ds.Rows()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 0, width)

		for j := range t.NumericNames {
			v := t.imputedAt(ds, i, j)
			row = append(row, (v-t.ScaleMeans[j])/t.ScaleStds[j])
		}

		for j := range t.CategoricalNames {
			label := ds.Categorical[i][j]
			if label == "" {
				label = t.ImputeModes[j]
			}
			block := make([]float64, len(t.Categories[j]))
			for k, cat := range t.Categories[j] {
				if cat == label {
					block[k] = 1
					break
				}
			}
			row = append(row, block...)
		}

		out[i] = row
	}
	return out, nil
}

// FitTransform fits on ds and transforms it.
func (t *ColumnTransformer) FitTransform(ds *Dataset) ([][]float64, error) {
	if err := t.Fit(ds); err != nil {
		return nil, err
	}
	return t.Transform(ds)
}

// FeatureNames returns the names of the output design-matrix columns, with
// one-hot columns written as "column=category".
func (t *ColumnTransformer) FeatureNames() []string {
	names := make([]string, 0, len(t.NumericNames))
	names = append(names, t.NumericNames...)
	for j, name := range t.CategoricalNames {
		for _, cat := range t.Categories[j] {
			names = append(names, name+"="+cat)
		}
	}
	return names
}
