package features

import (
	"fmt"
	"math"
	"testing"
)

// Scenario: one user, three outgoing transactions in January 2024.
func TestAddUserMonthlyStats_SingleMonth(t *testing.T) {
	rows := mustRows(t, []Transaction{
		{UserID: "u", Amount: 100, Date: "2024-01-05", TranType: TranTypeOutgoing},
		{UserID: "u", Amount: 200, Date: "2024-01-12", TranType: TranTypeOutgoing},
		{UserID: "u", Amount: 300, Date: "2024-01-20", TranType: TranTypeOutgoing},
	})

	if err := AddUserMonthlyStats(rows); err != nil {
		t.Fatalf("AddUserMonthlyStats: %v", err)
	}
	for i, r := range rows {
		if r.UserAvgMonthlyExpense != 200 {
			t.Errorf("row %d UserAvgMonthlyExpense = %g, want 200", i, r.UserAvgMonthlyExpense)
		}
		if r.UserTransactionCountMonth != 3 {
			t.Errorf("row %d UserTransactionCountMonth = %g, want 3", i, r.UserTransactionCountMonth)
		}
	}
}

func TestAddUserMonthlyStats_GroupsByUserAndMonth(t *testing.T) {
	rows := mustRows(t, []Transaction{
		{UserID: "a", Amount: 10, Date: "2024-01-05", TranType: TranTypeOutgoing},
		{UserID: "a", Amount: 30, Date: "2024-01-25", TranType: TranTypeOutgoing},
		{UserID: "a", Amount: 100, Date: "2024-02-03", TranType: TranTypeOutgoing},
		{UserID: "b", Amount: 500, Date: "2024-01-15", TranType: TranTypeOutgoing},
		// Same month number, different year: separate group.
		{UserID: "a", Amount: 999, Date: "2023-01-15", TranType: TranTypeOutgoing},
	})

	if err := AddUserMonthlyStats(rows); err != nil {
		t.Fatalf("AddUserMonthlyStats: %v", err)
	}

	checks := []struct {
		idx       int
		wantMean  float64
		wantCount float64
	}{
		{0, 20, 2},  // a, 2024-01
		{1, 20, 2},  // a, 2024-01
		{2, 100, 1}, // a, 2024-02
		{3, 500, 1}, // b, 2024-01
		{4, 999, 1}, // a, 2023-01
	}
	for _, c := range checks {
		r := rows[c.idx]
		if r.UserAvgMonthlyExpense != c.wantMean {
			t.Errorf("row %d mean = %g, want %g", c.idx, r.UserAvgMonthlyExpense, c.wantMean)
		}
		if r.UserTransactionCountMonth != c.wantCount {
			t.Errorf("row %d count = %g, want %g", c.idx, r.UserTransactionCountMonth, c.wantCount)
		}
	}
}

func TestClipOutliersZScore_Bounds(t *testing.T) {
	txs := make([]Transaction, 0, 21)
	for i := 0; i < 20; i++ {
		txs = append(txs, Transaction{
			UserID: "u", Amount: 100, TranType: TranTypeOutgoing,
			Date: fmt.Sprintf("2024-01-%02d", i+1),
		})
	}
	// One extreme outlier.
	txs = append(txs, Transaction{
		UserID: "u", Amount: 1e6, TranType: TranTypeOutgoing, Date: "2024-01-31",
	})

	rows := mustRows(t, txs)
	mean, std := columnMeanStd(rows, ColAmount)

	if err := ClipOutliersZScore(rows, []string{ColAmount}, 3.0); err != nil {
		t.Fatalf("ClipOutliersZScore: %v", err)
	}

	if len(rows) != 21 {
		t.Fatalf("row count changed: %d", len(rows))
	}
	lower, upper := mean-3*std, mean+3*std
	for i, r := range rows {
		if r.Amount < lower-1e-9 || r.Amount > upper+1e-9 {
			t.Errorf("row %d amount %g outside [%g, %g]", i, r.Amount, lower, upper)
		}
	}
	// The outlier must be clamped, not removed.
	if rows[len(rows)-1].Amount != upper {
		t.Errorf("outlier clamped to %g, want upper bound %g", rows[len(rows)-1].Amount, upper)
	}
}

func TestClipOutliersZScore_ZeroVarianceUntouched(t *testing.T) {
	rows := mustRows(t, []Transaction{
		{UserID: "u", Amount: 42, Date: "2024-01-01", TranType: TranTypeOutgoing},
		{UserID: "u", Amount: 42, Date: "2024-01-02", TranType: TranTypeOutgoing},
	})
	if err := ClipOutliersZScore(rows, []string{ColAmount}, 3.0); err != nil {
		t.Fatalf("ClipOutliersZScore: %v", err)
	}
	for i, r := range rows {
		if r.Amount != 42 {
			t.Errorf("row %d amount = %g, want 42", i, r.Amount)
		}
	}
}

func TestClipOutliersZScore_UnknownColumn(t *testing.T) {
	rows := mustRows(t, []Transaction{
		{UserID: "u", Amount: 1, Date: "2024-01-01", TranType: TranTypeOutgoing},
	})
	if err := ClipOutliersZScore(rows, []string{"no_such_column"}, 3.0); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestEngineerAll_EmptyInput(t *testing.T) {
	rows, err := EngineerAll(nil, DefaultOptions())
	if err != nil {
		t.Fatalf("EngineerAll on empty input: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty table, got %d rows", len(rows))
	}
}

func TestEngineerAll_PreservesRowCount(t *testing.T) {
	txs := sampleTransactions("u", 37)
	rows, err := EngineerAll(txs, DefaultOptions())
	if err != nil {
		t.Fatalf("EngineerAll: %v", err)
	}
	if len(rows) != len(txs) {
		t.Errorf("row count %d, want %d", len(rows), len(txs))
	}
}

// Re-engineering the output of the pipeline (derived columns recomputed,
// not duplicated) reproduces the same values when no clipping bound binds.
func TestEngineerAll_Idempotent(t *testing.T) {
	txs := []Transaction{
		{UserID: "u", Amount: 5000, Date: "2024-01-01", TranType: TranTypeIncome},
		{UserID: "u", Amount: 80, Date: "2024-01-04", TranType: TranTypeOutgoing},
		{UserID: "u", Amount: 95, Date: "2024-01-15", TranType: TranTypeOutgoing},
		{UserID: "u", Amount: 110, Date: "2024-01-27", TranType: TranTypeOutgoing},
		{UserID: "u", Amount: 5000, Date: "2024-02-01", TranType: TranTypeIncome},
		{UserID: "u", Amount: 70, Date: "2024-02-10", TranType: TranTypeOutgoing},
	}

	first, err := EngineerAll(txs, DefaultOptions())
	if err != nil {
		t.Fatalf("first EngineerAll: %v", err)
	}

	back := make([]Transaction, len(first))
	for i := range first {
		back[i] = first[i].Transaction()
	}
	second, err := EngineerAll(back, DefaultOptions())
	if err != nil {
		t.Fatalf("second EngineerAll: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		for _, name := range NumericColumnNames() {
			a, _ := NumericValue(&first[i], name)
			b, _ := NumericValue(&second[i], name)
			if math.Abs(*a-*b) > 1e-9 {
				t.Errorf("row %d column %s: %g vs %g", i, name, *a, *b)
			}
		}
	}
}

func TestEngineerAll_SingleMonthDegenerateGroup(t *testing.T) {
	rows, err := EngineerAll([]Transaction{
		{UserID: "u", Amount: 250, Date: "2024-06-10", TranType: TranTypeOutgoing},
	}, DefaultOptions())
	if err != nil {
		t.Fatalf("EngineerAll: %v", err)
	}
	if rows[0].UserAvgMonthlyExpense != 250 || rows[0].UserTransactionCountMonth != 1 {
		t.Errorf("degenerate group stats = (%g, %g), want (250, 1)",
			rows[0].UserAvgMonthlyExpense, rows[0].UserTransactionCountMonth)
	}
}

// sampleTransactions builds a deterministic multi-month history.
func sampleTransactions(user string, n int) []Transaction {
	txs := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		month := i/10 + 1
		day := i%10*3 + 1
		tranType := TranTypeOutgoing
		amount := float64(20 + i*7%90)
		if day == 1 {
			tranType = TranTypeIncome
			amount = 5000
		}
		txs = append(txs, Transaction{
			UserID:   user,
			Amount:   amount,
			Date:     fmt.Sprintf("2024-%02d-%02d", month, day),
			TranType: tranType,
			Category: "misc",
		})
	}
	return txs
}
