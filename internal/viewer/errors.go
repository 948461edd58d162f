package viewer

import (
	"errors"
	"fmt"
)

var (
	ErrFetch            = errors.New("fetch failed")
	ErrStaleResponse    = errors.New("response superseded by a newer request")
	ErrUnknownSortField = errors.New("unknown sort field")
	ErrEntryNotFound    = errors.New("entry not found on the loaded page")
	ErrSessionNotFound  = errors.New("viewer session not found")
	ErrInvalidDateRange = errors.New("date_from is after date_to")
)

// FetchError is a failed read from the backend. Loaded data is kept and the
// user may retry.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetch, e.Err}
}

func (e *FetchError) Retryable() bool {
	return true
}
