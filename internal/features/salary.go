package features

import (
	"sort"
	"time"
)

// AddSalaryFeatures derives the salary-cycle columns. It stable-sorts rows
// by (user, date) ascending, flags salary rows (income transactions whose
// amount equals salaryAmount exactly), forward-fills the last salary date
// within each user's history, and derives the day gaps:
//
//	days_since_last_salary: calendar days since the most recent salary row,
//	    or cycleDays when the user has no prior salary transaction;
//	days_until_next_salary: max(0, cycleDays - days_since_last_salary).
//
// The sort must happen before the forward fill; running the fill on
// unsorted rows silently corrupts the feature. The returned slice is in the
// sorted order.
func AddSalaryFeatures(rows []Row, salaryAmount float64, cycleDays int) ([]Row, error) {
	for i := range rows {
		if rows[i].TranType == "" {
			return nil, wrapRowErr(i, &MissingFieldError{Field: "tran_type"})
		}
		if rows[i].Date.IsZero() {
			return nil, wrapRowErr(i, &MissingFieldError{Field: "date"})
		}
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UserID != sorted[j].UserID {
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var (
		curUser    string
		lastSalary time.Time
		hasSalary  bool
	)
	for i := range sorted {
		r := &sorted[i]
		if r.UserID != curUser {
			curUser = r.UserID
			hasSalary = false
		}

		r.IsSalary = r.TranType == TranTypeIncome && r.Amount == salaryAmount
		if r.IsSalary {
			lastSalary = r.Date
			hasSalary = true
		}

		r.HasLastSalary = hasSalary
		if hasSalary {
			r.LastSalaryDate = lastSalary
			r.DaysSinceLastSalary = float64(DaysBetween(lastSalary, r.Date))
		} else {
			r.LastSalaryDate = time.Time{}
			r.DaysSinceLastSalary = float64(cycleDays)
		}

		r.DaysUntilNextSalary = float64(cycleDays) - r.DaysSinceLastSalary
		if r.DaysUntilNextSalary < 0 {
			r.DaysUntilNextSalary = 0
		}
	}
	return sorted, nil
}

// DaysBetween returns the number of calendar days from a to b, ignoring the
// time-of-day component.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad) / (24 * time.Hour))
}
