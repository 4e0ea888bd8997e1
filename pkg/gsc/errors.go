package gsc

import "fmt"

// FetchError reports a failed Search Console call. Callers must not
// substitute default data for the missing window unless they explicitly
// opt into partial results.
type FetchError struct {
	Site       string
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gsc: %s for %s failed: %v", e.Op, e.Site, e.Err)
	}
	return fmt.Sprintf("gsc: %s for %s failed with status %d", e.Op, e.Site, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }
