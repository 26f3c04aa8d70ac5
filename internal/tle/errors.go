package tle

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the catalog id is unknown to the element source.
var ErrNotFound = errors.New("catalog id not found")

// RetrievalError indicates a network or service failure while fetching an
// element set. The fetch is not retried; callers decide whether to retry.
type RetrievalError struct {
	URL string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving element set from %s: %v", e.URL, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }
