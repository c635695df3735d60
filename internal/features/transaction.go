package features

import "time"

// Transaction types as stored in the record store.
const (
	TranTypeIncome   = "income"
	TranTypeOutgoing = "outgoing"
)

// Transaction is one raw transaction record as read from the record store.
// Date is kept in its stored string form; parsing it is the pipeline's job
// and a parse failure is a hard error, not a dropped row.
type Transaction struct {
	UserID      string
	Amount      float64
	Category    string
	Date        string
	Description string
	ForWho      string
	TranType    string
}

// dateLayouts are accepted transaction date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses a stored date string into a calendar timestamp.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &MissingFieldError{Field: "date"}
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &DateParseError{Value: value, Err: lastErr}
}
