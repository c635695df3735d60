package features

import (
	"fmt"
	"math"
)

// ClipOutliersZScore clamps each named numeric column to
// [mean - threshold*std, mean + threshold*std], with mean and sample
// standard deviation computed over the full table. A nil columns slice
// means every numeric column. Clipping is a clamp, not a removal: the row
// count never changes. Columns with fewer than two rows or zero variance
// are left untouched.
//
// It must run after all other feature derivation so newly derived numeric
// columns are clipped too.
func ClipOutliersZScore(rows []Row, columns []string, threshold float64) error {
	if len(rows) == 0 {
		return nil
	}
	if columns == nil {
		columns = NumericColumnNames()
	}

	for _, name := range columns {
		if _, ok := NumericValue(&rows[0], name); !ok {
			return fmt.Errorf("clip outliers: unknown numeric column %q", name)
		}

		mean, std := columnMeanStd(rows, name)
		if std == 0 || math.IsNaN(std) {
			continue
		}

		lower := mean - threshold*std
		upper := mean + threshold*std
		for i := range rows {
			v, _ := NumericValue(&rows[i], name)
			if *v < lower {
				*v = lower
			} else if *v > upper {
				*v = upper
			}
		}
	}
	return nil
}

// columnMeanStd computes the mean and sample standard deviation of a
// numeric column over all rows.
func columnMeanStd(rows []Row, name string) (mean, std float64) {
	n := float64(len(rows))
	var sum float64
	for i := range rows {
		v, _ := NumericValue(&rows[i], name)
		sum += *v
	}
	mean = sum / n

	if len(rows) < 2 {
		return mean, 0
	}
	var ss float64
	for i := range rows {
		v, _ := NumericValue(&rows[i], name)
		d := *v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / (n - 1))
	return mean, std
}
