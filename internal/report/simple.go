package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitearchive/internal/model"
)

// SimpleWriter outputs the human-readable run summary printed at the end
// of an archive run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because the summary is often redirected to a file or a CI log.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with nothing to show are printed.
	showEmpty bool

	// verbose lists every archived page instead of only the totals.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables the page listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary.
func (w *SimpleWriter) Write(archive *model.Archive) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, archive)
	w.writeTotals(&sb, archive)
	w.writeArtifacts(&sb, archive)
	w.writePages(&sb, archive)
	w.writeFailures(&sb, archive)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeRule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	w.writeRule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	w.writeRule(sb, "-")
	sb.WriteString("\n")
}

// writeHeader writes the site, the timing and the status of the run.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, archive *model.Archive) {
	sb.WriteString("\n")
	w.writeRule(sb, "=")
	sb.WriteString("                        SITEARCHIVE SUMMARY\n")
	w.writeRule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Site:           %s\n", archive.RootURL)
	fmt.Fprintf(sb, "Started:        %s\n", archive.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", archive.Duration().Round(time.Second))
	fmt.Fprintf(sb, "Status:         %s\n", statusText(archive))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTotals(sb *strings.Builder, archive *model.Archive) {
	w.writeSection(sb, "TOTALS")

	fmt.Fprintf(sb, "  Visits:          %d\n", archive.Visits)
	fmt.Fprintf(sb, "  URLs discovered: %d\n", archive.FrontierSize)
	fmt.Fprintf(sb, "  Pages archived:  %d\n", len(archive.Pages))
	fmt.Fprintf(sb, "  Master pages:    %d\n", archive.MasterPages)
	fmt.Fprintf(sb, "  Chunks:          %d\n", len(archive.Chunks))
	fmt.Fprintf(sb, "  Failed branches: %d\n", len(archive.Failures))
	if archive.SlugCollisions > 0 {
		fmt.Fprintf(sb, "  Slug collisions: %d\n", archive.SlugCollisions)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeArtifacts(sb *strings.Builder, archive *model.Archive) {
	if archive.MasterPath == "" && archive.ReportPath == "" && !w.showEmpty {
		return
	}
	w.writeSection(sb, "OUTPUT")

	if archive.MasterPath != "" {
		fmt.Fprintf(sb, "  Master:  %s\n", archive.MasterPath)
	}
	for _, chunk := range archive.Chunks {
		fmt.Fprintf(sb, "  Chunk:   %s\n", chunk)
	}
	if archive.ReportPath != "" {
		fmt.Fprintf(sb, "  Summary: %s\n", archive.ReportPath)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, archive *model.Archive) {
	if !w.verbose {
		return
	}
	if len(archive.Pages) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "PAGES")

	if len(archive.Pages) == 0 {
		sb.WriteString("  No pages archived\n\n")
		return
	}
	for _, p := range archive.Pages {
		fmt.Fprintf(sb, "  [%d] %s\n", p.Seq, p.URL)
		fmt.Fprintf(sb, "      level %d, %d tile(s), master pages %d-%d\n", p.Level, p.Tiles, p.FirstPage, p.LastPage())
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, archive *model.Archive) {
	if len(archive.Failures) == 0 && !w.showEmpty {
		return
	}
	w.writeSection(sb, "FAILED BRANCHES")

	if len(archive.Failures) == 0 {
		sb.WriteString("  No failures\n\n")
		return
	}
	for _, f := range archive.Failures {
		fmt.Fprintf(sb, "  [!] %s (%s, level %d)\n", f.URL, f.Stage, f.Level)
		fmt.Fprintf(sb, "      %s\n", f.Message)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	w.writeRule(sb, "=")
	sb.WriteString("Archived with sitearchive\n")
	sb.WriteString("https://github.com/nao1215/sitearchive\n")
	w.writeRule(sb, "=")
}

// statusText describes the run status for humans.
func statusText(archive *model.Archive) string {
	switch archive.Status() {
	case model.StatusCanceled:
		return "CANCELED (partial archive)"
	case model.StatusFailed:
		msg := archive.ErrorMessage
		if msg == "" && archive.Error != nil {
			msg = archive.Error.Error()
		}
		return "ERROR - " + msg
	case model.StatusPartial:
		return fmt.Sprintf("Complete with %d failed branch(es)", len(archive.Failures))
	default:
		return "Complete"
	}
}
