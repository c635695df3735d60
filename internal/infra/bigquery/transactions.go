// Package bigquery implements the transaction record store on BigQuery.
// One typed repository per entity kind; transactions are the only entity
// the forecasting pipeline reads.
package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/spending-forecast/internal/features"
)

const dateFormat = "2006-01-02"

// TransactionRow is the wire form of one transaction in the transactions
// table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	UserID string `bigquery:"user_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC

	TranType string `bigquery:"tran_type"` // REQUIRED: income | outgoing

	Category    bigquery.NullString `bigquery:"category"`    // NULLABLE
	Description bigquery.NullString `bigquery:"description"` // NULLABLE
	ForWho      bigquery.NullString `bigquery:"for_who"`     // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// ToTransaction converts a stored row into the pipeline's domain form.
// Rows missing a required field produce a MissingFieldError rather than
// being dropped.
func (r *TransactionRow) ToTransaction() (features.Transaction, error) {
	var tx features.Transaction

	if r.TransactionDate == (civil.Date{}) {
		return tx, &features.MissingFieldError{Field: "date"}
	}
	if r.Amount == nil {
		return tx, &features.MissingFieldError{Field: "amount"}
	}
	if r.TranType == "" {
		return tx, &features.MissingFieldError{Field: "tran_type"}
	}

	amount, _ := r.Amount.Float64()
	tx = features.Transaction{
		UserID:      r.UserID,
		Amount:      amount,
		Category:    r.Category.StringVal,
		Date:        r.TransactionDate.String(),
		Description: r.Description.StringVal,
		ForWho:      r.ForWho.StringVal,
		TranType:    r.TranType,
	}
	return tx, nil
}

// NewTransactionRow builds a wire row from a domain transaction.
func NewTransactionRow(id string, tx features.Transaction) (*TransactionRow, error) {
	parsed, err := features.ParseDate(tx.Date)
	if err != nil {
		return nil, err
	}
	if tx.TranType == "" {
		return nil, &features.MissingFieldError{Field: "tran_type"}
	}

	return &TransactionRow{
		TransactionID:   id,
		UserID:          tx.UserID,
		TransactionDate: civil.DateOf(parsed),
		Amount:          new(big.Rat).SetFloat64(tx.Amount),
		TranType:        tx.TranType,
		Category:        nullString(tx.Category),
		Description:     nullString(tx.Description),
		ForWho:          nullString(tx.ForWho),
		CreatedTS:       time.Now().UTC(),
	}, nil
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
