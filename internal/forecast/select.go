// Package forecast selects, trains, persists and applies spending
// prediction models over engineered feature tables.
package forecast

import (
	"github.com/dvloznov/spending-forecast/internal/features"
	"github.com/dvloznov/spending-forecast/internal/ml"
)

// FeatureSet names the engineered columns fed to the model, partitioned by
// kind. The transaction amount is the target, never a feature.
type FeatureSet struct {
	Numerical   []string
	Categorical []string
}

// numericalCandidates and categoricalCandidates are the model's input
// columns, in a fixed order.
var numericalCandidates = []string{
	features.ColMonth,
	features.ColDayOfWeek,
	features.ColQuarter,
	features.ColAvgMonthlyExpense,
	features.ColMonthlyTxCount,
	features.ColDaysSinceLastSalary,
	features.ColDaysUntilNextSalary,
}

var categoricalCandidates = []string{
	features.ColTranType,
	features.ColIsWeekend,
	features.ColStartOfMonth,
	features.ColEndOfMonth,
}

// SelectFeatures partitions the engineered columns into numerical and
// categorical groups, keeping only columns the feature table actually
// carries so a schema change upstream degrades instead of breaking.
func SelectFeatures(rows []features.Row) FeatureSet {
	var fs FeatureSet
	probe := &features.Row{}
	if len(rows) > 0 {
		probe = &rows[0]
	}

	for _, name := range numericalCandidates {
		if _, ok := features.NumericValue(probe, name); ok {
			fs.Numerical = append(fs.Numerical, name)
		}
	}
	for _, name := range categoricalCandidates {
		if _, ok := features.CategoricalValue(probe, name); ok {
			fs.Categorical = append(fs.Categorical, name)
		}
	}
	return fs
}

// BuildDataset converts engineered rows into the column-partitioned form
// the ml package consumes, with the transaction amount as target.
func BuildDataset(rows []features.Row, fs FeatureSet) *ml.Dataset {
	ds := &ml.Dataset{
		NumericNames:     fs.Numerical,
		CategoricalNames: fs.Categorical,
	}

	for i := range rows {
		r := &rows[i]

		numeric := make([]float64, len(fs.Numerical))
		for j, name := range fs.Numerical {
			v, _ := features.NumericValue(r, name)
			numeric[j] = *v
		}
		ds.Numeric = append(ds.Numeric, numeric)

		categorical := make([]string, len(fs.Categorical))
		for j, name := range fs.Categorical {
			v, _ := features.CategoricalValue(r, name)
			categorical[j] = v
		}
		ds.Categorical = append(ds.Categorical, categorical)

		ds.Target = append(ds.Target, r.Amount)
	}
	return ds
}
