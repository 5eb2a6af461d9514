package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/sitearchive/internal/model"
)

// MarkdownWriter writes the archive summary stored next to the artifacts
// as index.md. It links every per-page PDF, the master document and the
// chunks, so the archive can be browsed from a Git forge or a file viewer.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// baseDir is the directory index.md is written to. Master and chunk
	// links are made relative to it.
	baseDir string
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithBaseDir sets the directory that links are relative to.
func WithBaseDir(dir string) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		w.baseDir = dir
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the archive summary in Markdown format.
func (w *MarkdownWriter) Write(archive *model.Archive) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, archive)
	w.writeDocuments(md, archive)
	w.writePages(md, archive)
	w.writeFailures(md, archive)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table and the status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, archive *model.Archive) {
	md.H1("Archive of " + archive.Site)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Root URL", "`" + archive.RootURL + "`"},
			{"Started", archive.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", archive.Duration().Round(time.Second).String()},
			{"Visits", strconv.Itoa(archive.Visits)},
			{"Pages Archived", strconv.Itoa(len(archive.Pages))},
			{"Master Pages", strconv.Itoa(archive.MasterPages)},
			{"Status", statusText(archive)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, archive)
}

// writeAlert writes an alert matching the run status.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, archive *model.Archive) {
	switch archive.Status() {
	case model.StatusFailed:
		md.Cautionf("The run stopped early: %s. The archive is incomplete.", statusText(archive))
	case model.StatusCanceled:
		md.Warningf("The run was canceled after %d visit(s). The archive is incomplete.", archive.Visits)
	case model.StatusPartial:
		md.Importantf("%d branch(es) could not be archived. See Failed Branches below.", len(archive.Failures))
	default:
		if len(archive.Pages) == 0 {
			md.Note("No pages were archived.")
		} else {
			md.Tip("Every reachable page was archived.")
		}
	}
	md.PlainText("")
}

// writeDocuments links the master document and its chunks.
func (w *MarkdownWriter) writeDocuments(md *markdown.Markdown, archive *model.Archive) {
	md.H2("Documents")
	md.PlainText("")

	if archive.MasterPath == "" {
		md.PlainText("No master document was written.")
		md.PlainText("")
		return
	}

	items := []string{
		fmt.Sprintf("[%s](%s) (%d pages)",
			"All pages", relativeTo(w.baseDir, archive.MasterPath), archive.MasterPages),
	}
	for i, chunk := range archive.Chunks {
		items = append(items, fmt.Sprintf("[Chunk %d](%s)", i+1, relativeTo(w.baseDir, chunk)))
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writePages writes one row per archived page in visitation order.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, archive *model.Archive) {
	md.H2("Pages")
	md.PlainText("")

	if len(archive.Pages) == 0 {
		md.PlainText("No pages archived.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(archive.Pages))
	for i, p := range archive.Pages {
		rows[i] = []string{
			strconv.Itoa(p.Seq),
			strconv.Itoa(p.Level),
			truncateString(p.URL, 80),
			strconv.Itoa(p.Tiles),
			fmt.Sprintf("%d-%d", p.FirstPage, p.LastPage()),
			fmt.Sprintf("[pdf](%s) [png](%s)", relativeTo("", p.DocumentPath), relativeTo("", p.ImagePath)),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Level", "URL", "Tiles", "Master Pages", "Files"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeLevelChart(md, archive)
}

// writeLevelChart writes a mermaid pie chart of archived pages per level.
// A chart with a single slice says nothing and is skipped.
func (w *MarkdownWriter) writeLevelChart(md *markdown.Markdown, archive *model.Archive) {
	perLevel := make(map[int]uint64)
	maxLevel := 0
	for _, p := range archive.Pages {
		perLevel[p.Level]++
		maxLevel = max(maxLevel, p.Level)
	}
	if len(perLevel) < 2 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages per Level"),
		piechart.WithShowData(true),
	)
	for level := 0; level <= maxLevel; level++ {
		if n := perLevel[level]; n > 0 {
			chart.LabelAndIntValue("Level "+strconv.Itoa(level), n)
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFailures writes the abandoned branches with their error messages.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, archive *model.Archive) {
	if len(archive.Failures) == 0 {
		return
	}

	md.H2("Failed Branches")
	md.PlainText("")

	rows := make([][]string, len(archive.Failures))
	for i, f := range archive.Failures {
		rows[i] = []string{
			truncateString(f.URL, 80),
			strconv.Itoa(f.Level),
			f.Stage,
			truncateString(f.Message, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Level", "Stage", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range archive.Failures {
		if len(f.Message) > 60 {
			md.Details(f.URL, f.Message)
		}
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Archived with [sitearchive](https://github.com/nao1215/sitearchive)*")
}
