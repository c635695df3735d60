package bigquery

import "github.com/google/uuid"

// newTransactionID mints a new transaction identifier.
func newTransactionID() string {
	return uuid.New().String()
}
