package feed

import (
	"errors"
	"fmt"
)

// ErrMissingID indicates a feed item without a CVE identifier.
var ErrMissingID = errors.New("feed item has no CVE id")

// FetchError is returned when every download attempt failed.
type FetchError struct {
	URL      string // Requested URL
	Attempts int    // Attempts made
	Err      error  // Last failure
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("GET %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Code)
}
