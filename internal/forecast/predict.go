package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/spending-forecast/internal/artifacts"
	"github.com/dvloznov/spending-forecast/internal/features"
	"github.com/dvloznov/spending-forecast/internal/logger"
)

// unknownCategory is the tran_type placeholder for synthesized future rows.
// The preprocessor encodes categories it never saw during fit as all zeros,
// so an unseen placeholder degrades gracefully.
const unknownCategory = "UNKNOWN"

// Prediction is one future period's estimated spending.
type Prediction struct {
	PeriodStart     time.Time
	PredictedAmount float64
}

// FuturePeriods returns the first day of each calendar month strictly after
// the month containing from, one per requested month.
func FuturePeriods(from time.Time, months int) []time.Time {
	periods := make([]time.Time, 0, months)
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= months; i++ {
		periods = append(periods, start.AddDate(0, i, 0))
	}
	return periods
}

// PredictFuture loads a user's saved pipeline and applies it to synthesized
// feature rows for the given future periods. Historical aggregates are held
// constant at their training-time values; salary-cycle features are derived
// from the last observed salary date assuming the configured cadence.
//
// Results come back in chronological order regardless of input order.
func PredictFuture(ctx context.Context, store artifacts.Store, userID string, periods []time.Time) ([]Prediction, error) {
	log := logger.FromContext(ctx)

	artifact, err := LoadArtifact(ctx, store, userID)
	if err != nil {
		return nil, err
	}
	if len(periods) == 0 {
		return nil, nil
	}

	sorted := make([]time.Time, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	rows, err := synthesizeRows(userID, sorted, artifact.History)
	if err != nil {
		return nil, fmt.Errorf("predict for %s: %w", userID, err)
	}

	ds := BuildDataset(rows, artifact.Features)
	x, err := artifact.Preprocessor.Transform(ds)
	if err != nil {
		return nil, fmt.Errorf("predict for %s: transform: %w", userID, err)
	}
	amounts := artifact.Estimator.Predict(x)

	predictions := make([]Prediction, len(sorted))
	for i, p := range sorted {
		predictions[i] = Prediction{PeriodStart: p, PredictedAmount: amounts[i]}
	}

	log.Info().
		Str("user_id", userID).
		Str("model", artifact.CandidateName).
		Int("periods", len(predictions)).
		Msg("future spending predicted")
	return predictions, nil
}

// synthesizeRows builds one engineered feature row per future period,
// combining calendar features for the period date with the user's stored
// history aggregates.
func synthesizeRows(userID string, periods []time.Time, h UserHistory) ([]features.Row, error) {
	txs := make([]features.Transaction, len(periods))
	for i, p := range periods {
		txs[i] = features.Transaction{
			UserID:   userID,
			Date:     p.Format("2006-01-02"),
			TranType: unknownCategory,
		}
	}

	rows, err := features.AddTimeFeatures(txs)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		r := &rows[i]
		r.UserAvgMonthlyExpense = h.AvgExpense
		r.UserTransactionCountMonth = h.AvgTxCount

		if h.HasSalary && h.CycleDays > 0 {
			since := features.DaysBetween(h.LastSalaryDate, periods[i])
			if since < 0 {
				since = 0
			}
			// Project the salary cadence forward: the cycle repeats every
			// CycleDays after the last observed salary.
			r.DaysSinceLastSalary = float64(since % h.CycleDays)
			r.LastSalaryDate = h.LastSalaryDate
			r.HasLastSalary = true
		} else {
			r.DaysSinceLastSalary = float64(h.CycleDays)
		}
		r.DaysUntilNextSalary = float64(h.CycleDays) - r.DaysSinceLastSalary
		if r.DaysUntilNextSalary < 0 {
			r.DaysUntilNextSalary = 0
		}
	}
	return rows, nil
}
