package crawler

import (
	"errors"
	"fmt"
)

// errNotAbsolute is wrapped by InvalidURLError when a link parses but has no
// scheme or host.
var errNotAbsolute = errors.New("not an absolute URL")

// InvalidURLError is returned by Normalize when a link cannot be turned into
// an absolute URL key.
type InvalidURLError struct {
	// Raw is the link as it was discovered.
	Raw string

	// Err is the underlying parse failure.
	Err error
}

// Error implements error.
func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %v", e.Raw, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidURLError) Unwrap() error {
	return e.Err
}

// BranchError marks a page handler failure that only terminates the current
// crawl branch. Any other error returned by a PageHandler aborts the crawl.
type BranchError struct {
	// URL is the page whose branch was abandoned.
	URL string

	// Stage names the step that failed (for example "persist" or "assemble").
	Stage string

	// Err is the underlying failure.
	Err error
}

// NewBranchError wraps err so that the engine abandons only the branch of url.
func NewBranchError(url, stage string, err error) *BranchError {
	return &BranchError{URL: url, Stage: stage, Err: err}
}

// Error implements error.
func (e *BranchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *BranchError) Unwrap() error {
	return e.Err
}
