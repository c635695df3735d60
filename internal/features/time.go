package features

import "time"

// endOfMonthWindow is how many days before the month's last day still count
// as end of month.
const endOfMonthWindow = 5

// startOfMonthWindow is the last day-of-month that still counts as start of
// month.
const startOfMonthWindow = 5

// AddTimeFeatures parses every transaction's date and derives its calendar
// features: month, day of week (Monday = 0), quarter, weekend flag, and
// start/end-of-month flags. It is pure and imposes no ordering requirement.
//
// A missing date yields a MissingFieldError; an unparseable one a
// DateParseError. Either aborts the whole batch.
func AddTimeFeatures(txs []Transaction) ([]Row, error) {
	rows := make([]Row, 0, len(txs))
	for i, tx := range txs {
		t, err := ParseDate(tx.Date)
		if err != nil {
			return nil, wrapRowErr(i, err)
		}

		row := Row{
			UserID:      tx.UserID,
			Date:        t,
			Amount:      tx.Amount,
			Category:    tx.Category,
			Description: tx.Description,
			ForWho:      tx.ForWho,
			TranType:    tx.TranType,
		}
		setCalendarFeatures(&row, t)
		rows = append(rows, row)
	}
	return rows, nil
}

// setCalendarFeatures fills the calendar-derived columns of row from t.
func setCalendarFeatures(row *Row, t time.Time) {
	row.Month = float64(t.Month())
	row.Year = t.Year()
	row.DayOfWeek = float64(mondayIndexed(t.Weekday()))
	row.Quarter = float64((int(t.Month())-1)/3 + 1)
	row.IsWeekend = row.DayOfWeek >= 5
	row.IsStartOfMonth = t.Day() <= startOfMonthWindow

	last := daysInMonth(t.Year(), t.Month())
	row.IsEndOfMonth = t.Day() == last || last-t.Day() <= endOfMonthWindow
}

// mondayIndexed converts time.Weekday (Sunday = 0) to Monday = 0.
func mondayIndexed(w time.Weekday) int {
	return (int(w) + 6) % 7
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
