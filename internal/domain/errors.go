package domain

import (
	"errors"
	"fmt"
)

// ErrNotConfigured marks an optional collaborator that has no credentials or
// endpoint. Callers treat it as an expected absence, not a fault.
var ErrNotConfigured = errors.New("not configured")

// FeedFetchError reports a feed that could not be fetched or parsed.
// It is recoverable: the run continues with the remaining feeds.
type FeedFetchError struct {
	URL string
	Err error
}

func (e *FeedFetchError) Error() string {
	return fmt.Sprintf("fetch feed %s: %v", e.URL, e.Err)
}

func (e *FeedFetchError) Unwrap() error {
	return e.Err
}
