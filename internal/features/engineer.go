package features

import "fmt"

// Options parameterizes the feature-engineering pipeline.
type Options struct {
	// SalaryAmount is the exact income amount that flags a salary row.
	SalaryAmount float64
	// CycleDays is the assumed salary cycle length in days.
	CycleDays int
	// ClipThreshold is the z-score clamp threshold.
	ClipThreshold float64
	// ClipColumns restricts clipping to the named numeric columns.
	// Nil means all numeric columns.
	ClipColumns []string
}

// DefaultOptions returns the standard pipeline parameters.
func DefaultOptions() Options {
	return Options{
		SalaryAmount:  5000,
		CycleDays:     30,
		ClipThreshold: 3.0,
	}
}

// EngineerAll runs the full feature-engineering pipeline over a batch of
// raw transactions:
//
//	1. calendar features
//	2. per-user monthly window stats
//	3. salary-cycle features (sorts by user, date)
//	4. z-score outlier clipping
//
// The order is load-bearing: the monthly stats need the parsed dates, the
// salary features need amount and tran_type, and clipping must see every
// derived numeric column. Output rows are sorted by (user, date) ascending
// and the row count always equals the input count.
//
// An empty input yields an empty table and no error; callers decide whether
// that means "insufficient data".
func EngineerAll(txs []Transaction, opts Options) ([]Row, error) {
	if len(txs) == 0 {
		return []Row{}, nil
	}

	rows, err := AddTimeFeatures(txs)
	if err != nil {
		return nil, fmt.Errorf("engineer features: time features: %w", err)
	}

	if err := AddUserMonthlyStats(rows); err != nil {
		return nil, fmt.Errorf("engineer features: monthly stats: %w", err)
	}

	rows, err = AddSalaryFeatures(rows, opts.SalaryAmount, opts.CycleDays)
	if err != nil {
		return nil, fmt.Errorf("engineer features: salary features: %w", err)
	}

	if err := ClipOutliersZScore(rows, opts.ClipColumns, opts.ClipThreshold); err != nil {
		return nil, fmt.Errorf("engineer features: clip outliers: %w", err)
	}

	return rows, nil
}

func wrapRowErr(i int, err error) error {
	return fmt.Errorf("transaction %d: %w", i, err)
}
