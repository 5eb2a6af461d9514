package capture

import (
	"errors"
	"fmt"
)

// ErrBrowserUnavailable is returned when Chrome cannot be started.
var ErrBrowserUnavailable = errors.New("browser unavailable")

// ErrBrowserClosed is returned when a closed Browser is used.
var ErrBrowserClosed = errors.New("browser closed")

// NavigationError is returned when a page cannot be loaded or answers with
// an HTTP error status.
type NavigationError struct {
	URL    string
	Status int
	Err    error
}

// Error implements error.
func (e *NavigationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("navigation to %s failed with status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NavigationError) Unwrap() error {
	return e.Err
}

// LoginError is returned when the login form cannot be submitted.
type LoginError struct {
	URL string
	Err error
}

// Error implements error.
func (e *LoginError) Error() string {
	return fmt.Sprintf("login at %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoginError) Unwrap() error {
	return e.Err
}
