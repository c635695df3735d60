// Package ml implements the small supervised-learning toolkit the
// forecasting stage needs: a column-wise preprocessor (imputation, scaling,
// one-hot encoding), a handful of regression estimators, k-fold grid search
// and the usual error metrics. Everything operates on plain float64 slices.
package ml

import "fmt"

// Dataset is a column-partitioned feature table: numeric columns as
// float64, categorical columns as string labels, one target value per row.
// A NaN numeric value or an empty categorical label counts as missing.
type Dataset struct {
	NumericNames     []string
	CategoricalNames []string

	// Numeric is row-major: Numeric[i][j] is row i, numeric column j.
	Numeric [][]float64
	// Categorical is row-major: Categorical[i][j] is row i, categorical
	// column j.
	Categorical [][]string

	Target []float64
}

// Rows returns the number of rows in the dataset.
func (d *Dataset) Rows() int {
	if len(d.Numeric) > 0 {
		return len(d.Numeric)
	}
	return len(d.Categorical)
}

// Subset returns a new dataset containing only the rows at the given
// indices, in order.
func (d *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		NumericNames:     d.NumericNames,
		CategoricalNames: d.CategoricalNames,
	}
	for _, i := range indices {
		if len(d.Numeric) > 0 {
			out.Numeric = append(out.Numeric, d.Numeric[i])
		}
		if len(d.Categorical) > 0 {
			out.Categorical = append(out.Categorical, d.Categorical[i])
		}
		if len(d.Target) > 0 {
			out.Target = append(out.Target, d.Target[i])
		}
	}
	return out
}

// Validate checks that all present column groups agree on the row count.
func (d *Dataset) Validate() error {
	n := d.Rows()
	if len(d.Numeric) > 0 && len(d.Numeric) != n {
		return fmt.Errorf("dataset: numeric rows %d != %d", len(d.Numeric), n)
	}
	if len(d.Categorical) > 0 && len(d.Categorical) != n {
		return fmt.Errorf("dataset: categorical rows %d != %d", len(d.Categorical), n)
	}
	if len(d.Target) > 0 && len(d.Target) != n {
		return fmt.Errorf("dataset: target rows %d != %d", len(d.Target), n)
	}
	for i, row := range d.Numeric {
		if len(row) != len(d.NumericNames) {
			return fmt.Errorf("dataset: numeric row %d has %d values, want %d", i, len(row), len(d.NumericNames))
		}
	}
	for i, row := range d.Categorical {
		if len(row) != len(d.CategoricalNames) {
			return fmt.Errorf("dataset: categorical row %d has %d values, want %d", i, len(row), len(d.CategoricalNames))
		}
	}
	return nil
}
