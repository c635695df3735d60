package forecast

import "fmt"

// InsufficientDataError reports an engineered table too small to train on.
// It is raised before any split or fit work begins.
type InsufficientDataError struct {
	Rows int
}

func (e *InsufficientDataError) Error() string {
	if e.Rows == 0 {
		return "insufficient data: no transactions for user"
	}
	return fmt.Sprintf("insufficient data: %d engineered rows", e.Rows)
}
