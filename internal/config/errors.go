package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSite is returned when --url is not given.
	ErrNoSite = errors.New("no site specified: provide a domain with --url")

	// ErrInvalidSite is returned when the site cannot be turned into an
	// absolute URL with a host.
	ErrInvalidSite = errors.New("invalid site: must be a domain or an absolute URL")

	// ErrInvalidChunkSize is returned when the chunk size is less than one.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be at least 1")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	// Depth 0 is allowed and archives nothing.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidTimeout is returned when the navigation timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidIdleTimeout is returned when the network idle timeout is not positive.
	ErrInvalidIdleTimeout = errors.New("invalid idle timeout: must be positive")

	// ErrInvalidPageSize is returned when a page dimension is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: width and height must be positive")

	// ErrIncompleteCredentials is returned when only one of user and
	// password is set. Both are needed to submit the login form.
	ErrIncompleteCredentials = errors.New("incomplete credentials: both user and password are required")
)
