package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/sitearchive/internal/model"
)

// JSONWriter outputs run summaries in JSON format for scripts and CI.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the summary is small and the model types already
// carry json tags.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string

	// version is embedded in the output when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the tool version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONSummary wraps an Archive with fields derived at write time.
//
// Design decision: We wrap the archive rather than adding these fields to
// model.Archive because they are computed, and keeping them out of the
// model avoids storing two sources of truth.
type JSONSummary struct {
	Version         string         `json:"version,omitempty"`
	Status          string         `json:"status"`
	DurationSeconds float64        `json:"duration_seconds"`
	TotalTiles      int            `json:"total_tiles"`
	Archive         *model.Archive `json:"archive"`
}

// NewJSONSummary builds the JSON view of archive.
func NewJSONSummary(archive *model.Archive, version string) *JSONSummary {
	if archive.ErrorMessage == "" && archive.Error != nil {
		archive.ErrorMessage = archive.Error.Error()
	}
	return &JSONSummary{
		Version:         version,
		Status:          archive.Status(),
		DurationSeconds: archive.Duration().Seconds(),
		TotalTiles:      archive.TotalTiles(),
		Archive:         archive,
	}
}

// Write outputs the run summary as a single JSON document.
func (w *JSONWriter) Write(archive *model.Archive) (int, error) {
	return w.writeJSON(NewJSONSummary(archive, w.version))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
