package features

import (
	"strconv"
	"time"
)

// Row is one engineered feature row: a transaction augmented with derived
// calendar, aggregate and salary-cycle columns. Derived numeric columns are
// float64 so outlier clipping can clamp them against fractional bounds.
type Row struct {
	UserID      string
	Date        time.Time
	Amount      float64
	Category    string
	Description string
	ForWho      string
	TranType    string

	// Calendar features.
	Month          float64 // 1..12
	Year           int     // grouping key only, not a model feature
	DayOfWeek      float64 // Monday = 0
	Quarter        float64 // 1..4
	IsWeekend      bool
	IsStartOfMonth bool // day <= 5
	IsEndOfMonth   bool // last day, or within 5 days of month end

	// Per-user monthly window stats. Identical for every row sharing the
	// same (user, year, month) group.
	UserAvgMonthlyExpense     float64
	UserTransactionCountMonth float64

	// Salary-cycle features.
	IsSalary            bool
	LastSalaryDate      time.Time
	HasLastSalary       bool
	DaysSinceLastSalary float64
	DaysUntilNextSalary float64
}

// Engineered numeric column names.
const (
	ColAmount              = "amount"
	ColMonth               = "month"
	ColDayOfWeek           = "day_of_week"
	ColQuarter             = "quarter"
	ColAvgMonthlyExpense   = "user_avg_monthly_expense"
	ColMonthlyTxCount      = "user_transaction_count_month"
	ColDaysSinceLastSalary = "days_since_last_salary"
	ColDaysUntilNextSalary = "days_until_next_salary"
)

// Engineered categorical column names.
const (
	ColTranType     = "tran_type"
	ColIsWeekend    = "is_weekend"
	ColStartOfMonth = "is_start_of_month"
	ColEndOfMonth   = "is_end_of_month"
)

type numericColumn struct {
	name string
	get  func(*Row) *float64
}

// numericColumns is the registry of clippable numeric feature columns, in
// declaration order. Year is deliberately absent: it is a grouping key, not
// a model feature.
var numericColumns = []numericColumn{
	{ColAmount, func(r *Row) *float64 { return &r.Amount }},
	{ColMonth, func(r *Row) *float64 { return &r.Month }},
	{ColDayOfWeek, func(r *Row) *float64 { return &r.DayOfWeek }},
	{ColQuarter, func(r *Row) *float64 { return &r.Quarter }},
	{ColAvgMonthlyExpense, func(r *Row) *float64 { return &r.UserAvgMonthlyExpense }},
	{ColMonthlyTxCount, func(r *Row) *float64 { return &r.UserTransactionCountMonth }},
	{ColDaysSinceLastSalary, func(r *Row) *float64 { return &r.DaysSinceLastSalary }},
	{ColDaysUntilNextSalary, func(r *Row) *float64 { return &r.DaysUntilNextSalary }},
}

// NumericColumnNames returns the names of all numeric feature columns in
// declaration order.
func NumericColumnNames() []string {
	names := make([]string, len(numericColumns))
	for i, c := range numericColumns {
		names[i] = c.name
	}
	return names
}

// NumericValue returns a pointer to the named numeric column of r, or false
// if no such column exists.
func NumericValue(r *Row, name string) (*float64, bool) {
	for _, c := range numericColumns {
		if c.name == name {
			return c.get(r), true
		}
	}
	return nil, false
}

// CategoricalColumnNames returns the names of all categorical feature
// columns in declaration order.
func CategoricalColumnNames() []string {
	return []string{ColTranType, ColIsWeekend, ColStartOfMonth, ColEndOfMonth}
}

// CategoricalValue returns the named categorical column of r as a string
// category label, or false if no such column exists.
func CategoricalValue(r *Row, name string) (string, bool) {
	switch name {
	case ColTranType:
		return r.TranType, true
	case ColIsWeekend:
		return strconv.FormatBool(r.IsWeekend), true
	case ColStartOfMonth:
		return strconv.FormatBool(r.IsStartOfMonth), true
	case ColEndOfMonth:
		return strconv.FormatBool(r.IsEndOfMonth), true
	}
	return "", false
}

// Transaction converts an engineered row back to its raw record form,
// discarding derived columns. Useful for re-running the pipeline on its own
// output.
func (r *Row) Transaction() Transaction {
	return Transaction{
		UserID:      r.UserID,
		Amount:      r.Amount,
		Category:    r.Category,
		Date:        r.Date.Format("2006-01-02"),
		Description: r.Description,
		ForWho:      r.ForWho,
		TranType:    r.TranType,
	}
}
