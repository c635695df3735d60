package bigquery

import (
	"errors"
	"math/big"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/spending-forecast/internal/features"
)

func TestTransactionRow_ToTransaction(t *testing.T) {
	row := &TransactionRow{
		TransactionID:   "t1",
		UserID:          "alice@example.com",
		TransactionDate: civil.Date{Year: 2024, Month: 1, Day: 15},
		Amount:          big.NewRat(12550, 100),
		TranType:        features.TranTypeOutgoing,
		Category:        bigquery.NullString{StringVal: "groceries", Valid: true},
	}

	tx, err := row.ToTransaction()
	if err != nil {
		t.Fatalf("ToTransaction: %v", err)
	}
	if tx.UserID != "alice@example.com" {
		t.Errorf("UserID = %q", tx.UserID)
	}
	if tx.Date != "2024-01-15" {
		t.Errorf("Date = %q, want 2024-01-15", tx.Date)
	}
	if tx.Amount != 125.5 {
		t.Errorf("Amount = %g, want 125.5", tx.Amount)
	}
	if tx.Category != "groceries" {
		t.Errorf("Category = %q", tx.Category)
	}
}

func TestTransactionRow_ToTransaction_RequiredFields(t *testing.T) {
	base := func() *TransactionRow {
		return &TransactionRow{
			TransactionID:   "t1",
			UserID:          "u",
			TransactionDate: civil.Date{Year: 2024, Month: 1, Day: 15},
			Amount:          big.NewRat(1, 1),
			TranType:        features.TranTypeIncome,
		}
	}

	tests := []struct {
		name      string
		mutate    func(*TransactionRow)
		wantField string
	}{
		{"missing date", func(r *TransactionRow) { r.TransactionDate = civil.Date{} }, "date"},
		{"missing amount", func(r *TransactionRow) { r.Amount = nil }, "amount"},
		{"missing tran_type", func(r *TransactionRow) { r.TranType = "" }, "tran_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := base()
			tt.mutate(row)
			_, err := row.ToTransaction()
			var missing *features.MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingFieldError, got %v", err)
			}
			if missing.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", missing.Field, tt.wantField)
			}
		})
	}
}

func TestNewTransactionRow_RoundTrip(t *testing.T) {
	tx := features.Transaction{
		UserID:      "bob@example.com",
		Amount:      42.25,
		Category:    "transport",
		Date:        "2024-03-09",
		Description: "bus pass",
		TranType:    features.TranTypeOutgoing,
	}

	row, err := NewTransactionRow("t2", tx)
	if err != nil {
		t.Fatalf("NewTransactionRow: %v", err)
	}
	back, err := row.ToTransaction()
	if err != nil {
		t.Fatalf("ToTransaction: %v", err)
	}

	if back.UserID != tx.UserID || back.Date != tx.Date || back.TranType != tx.TranType {
		t.Errorf("round trip mismatch: %+v vs %+v", back, tx)
	}
	if back.Amount != tx.Amount {
		t.Errorf("Amount = %g, want %g", back.Amount, tx.Amount)
	}
	if back.Category != tx.Category || back.Description != tx.Description {
		t.Errorf("string fields mismatch: %+v vs %+v", back, tx)
	}
}

func TestNewTransactionRow_BadDate(t *testing.T) {
	_, err := NewTransactionRow("t", features.Transaction{
		UserID: "u", Amount: 1, Date: "bogus", TranType: features.TranTypeIncome,
	})
	var parseErr *features.DateParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected DateParseError, got %v", err)
	}
}
