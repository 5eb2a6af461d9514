package document

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPageSize is returned when a page width or height is not positive.
	ErrInvalidPageSize = errors.New("invalid page size: width and height must be positive")

	// ErrEmptyDocument is returned when finalizing a master document that has no pages.
	// fpdf would otherwise emit a single blank page.
	ErrEmptyDocument = errors.New("document has no pages")

	// ErrAlreadyFinalized is returned when the master document is finalized twice.
	ErrAlreadyFinalized = errors.New("master document already finalized")

	// ErrInvalidChunkSize is returned when the chunk size is less than one.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be at least 1")
)

// InvalidImageError is returned when a capture cannot be tiled: its
// dimensions are not positive or the PDF writer cannot decode it.
type InvalidImageError struct {
	Width  int
	Height int
	Err    error
}

// Error implements error.
func (e *InvalidImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image %dx%d: %v", e.Width, e.Height, e.Err)
	}
	return fmt.Sprintf("invalid image %dx%d: dimensions must be positive", e.Width, e.Height)
}

// Unwrap returns the underlying error.
func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// DocumentLoadError is returned when a finished document cannot be read or
// is not a valid PDF.
type DocumentLoadError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *DocumentLoadError) Error() string {
	return fmt.Sprintf("failed to load document %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentLoadError) Unwrap() error {
	return e.Err
}
