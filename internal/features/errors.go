package features

import "fmt"

// MissingFieldError reports a transaction record missing a field the
// pipeline requires. Records are never silently dropped.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("transaction missing required field %q", e.Field)
}

// DateParseError reports a date field that is present but unparseable.
type DateParseError struct {
	Value string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unparseable transaction date %q: %v", e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error {
	return e.Err
}
