package report

import (
	"io"
	"path/filepath"

	"github.com/nao1215/sitearchive/internal/model"
)

// Writer defines the interface for run summaries.
// Implementations write the outcome of an archive run in various formats.
//
// Design decision: We use an interface so that the same run can be printed
// to the terminal and written to index.md with one call through MultiWriter.
type Writer interface {
	// Write outputs the summary of archive to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(archive *model.Archive) (int, error)
}

// MultiWriter writes to multiple Writers in order.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write summaries, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(archive *model.Archive) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(archive)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// relativeTo returns p relative to base with forward slashes, for links
// that must keep working when the archive directory is moved. Paths that
// cannot be made relative are returned unchanged.
func relativeTo(base, p string) string {
	if p == "" || base == "" {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
