package features

// AddUserMonthlyStats attaches per-user monthly window statistics to every
// row: the mean transaction amount and the transaction count over the
// (user, year, month) group the row belongs to. All rows in a group receive
// identical values. Year and Month are re-derived from the row's date so the
// operation does not depend on AddTimeFeatures having run.
func AddUserMonthlyStats(rows []Row) error {
	type groupKey struct {
		user  string
		year  int
		month int
	}
	type groupAgg struct {
		sum   float64
		count int
	}

	groups := make(map[groupKey]*groupAgg)
	for i := range rows {
		r := &rows[i]
		if r.Date.IsZero() {
			return wrapRowErr(i, &MissingFieldError{Field: "date"})
		}
		r.Year = r.Date.Year()
		r.Month = float64(r.Date.Month())

		key := groupKey{r.UserID, r.Year, int(r.Date.Month())}
		agg := groups[key]
		if agg == nil {
			agg = &groupAgg{}
			groups[key] = agg
		}
		agg.sum += r.Amount
		agg.count++
	}

	for i := range rows {
		r := &rows[i]
		key := groupKey{r.UserID, r.Year, int(r.Date.Month())}
		agg := groups[key]
		r.UserAvgMonthlyExpense = agg.sum / float64(agg.count)
		r.UserTransactionCountMonth = float64(agg.count)
	}
	return nil
}
