package monitor

import "errors"

// Request-scoped validation failures for the date-range history mode.
// All are recoverable and surfaced to the caller as structured error
// responses; none terminate anything.
var (
	ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrInvalidRange      = errors.New("end must be on or after start")
	ErrRangeTooLarge     = errors.New("range too large (max 31 days)")
)
