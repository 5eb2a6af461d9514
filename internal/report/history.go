package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/sitearchive/internal/database"
	"github.com/nao1215/sitearchive/internal/model"
)

// historyTimeFormat is used for every timestamp in history listings.
const historyTimeFormat = "2006-01-02 15:04:05"

// HistoryWriter renders the archive history stored in the database, either
// as aligned terminal columns or as Markdown tables.
type HistoryWriter struct {
	baseWriter
	markdown bool
}

// HistoryWriterOption configures a HistoryWriter.
type HistoryWriterOption func(*HistoryWriter)

// WithMarkdown selects Markdown output.
func WithMarkdown(enabled bool) HistoryWriterOption {
	return func(w *HistoryWriter) {
		w.markdown = enabled
	}
}

// NewHistoryWriter creates a HistoryWriter that outputs to the given writer.
func NewHistoryWriter(output io.Writer, opts ...HistoryWriterOption) *HistoryWriter {
	w := &HistoryWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteSites lists the archived sites.
func (w *HistoryWriter) WriteSites(sites []database.SiteSummary) error {
	rows := make([][]string, len(sites))
	for i, s := range sites {
		rows[i] = []string{s.Site, strconv.Itoa(s.Runs), formatHistoryTime(s.LastRun)}
	}
	return w.writeTable("Archived Sites", "No archived sites.",
		[]string{"Site", "Runs", "Last Run"}, rows)
}

// WriteRuns lists the runs of one site.
func (w *HistoryWriter) WriteRuns(site string, runs []database.RunSummary) error {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		duration := "-"
		if !r.FinishedAt.IsZero() {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			formatHistoryTime(r.StartedAt),
			duration,
			r.Status,
			strconv.Itoa(r.Pages),
			strconv.Itoa(r.MasterPages),
			strconv.Itoa(r.Chunks),
			strconv.Itoa(r.Failures),
		}
	}
	return w.writeTable("Runs of "+site, "No runs recorded for "+site+".",
		[]string{"ID", "Started", "Duration", "Status", "Pages", "Master Pages", "Chunks", "Failures"}, rows)
}

// WritePages lists the pages archived by one run.
func (w *HistoryWriter) WritePages(runID int64, pages []model.PageRecord) error {
	rows := make([][]string, len(pages))
	for i, p := range pages {
		rows[i] = []string{
			strconv.Itoa(p.Seq),
			strconv.Itoa(p.Level),
			p.URL,
			strconv.Itoa(p.Tiles),
			fmt.Sprintf("%d-%d", p.FirstPage, p.LastPage()),
			p.DocumentPath,
		}
	}
	return w.writeTable(fmt.Sprintf("Pages of run %d", runID), "No pages recorded for this run.",
		[]string{"#", "Level", "URL", "Tiles", "Master Pages", "Document"}, rows)
}

// WritePageHistory lists every capture of one URL. A capture whose image
// hash differs from the previous (older) one is marked as changed.
func (w *HistoryWriter) WritePageHistory(url string, captures []database.PageCapture) error {
	rows := make([][]string, len(captures))
	for i, c := range captures {
		changed := "no"
		if i == len(captures)-1 {
			changed = "first"
		} else if captures[i+1].ImageHash != c.ImageHash {
			changed = "yes"
		}
		rows[i] = []string{
			strconv.FormatInt(c.RunID, 10),
			formatHistoryTime(c.CapturedAt),
			strconv.Itoa(c.Tiles),
			shortHash(c.ImageHash),
			changed,
		}
	}
	return w.writeTable("Captures of "+url, "No captures recorded for "+url+".",
		[]string{"Run", "Captured", "Tiles", "Image", "Changed"}, rows)
}

// writeTable writes a titled table, or the empty message when there are no rows.
func (w *HistoryWriter) writeTable(title, empty string, header []string, rows [][]string) error {
	if w.markdown {
		md := markdown.NewMarkdown(w.output)
		md.H2(title)
		md.PlainText("")
		if len(rows) == 0 {
			md.PlainText(empty)
		} else {
			md.Table(markdown.TableSet{Header: header, Rows: rows})
		}
		return md.Build()
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w.output, empty)
		return err
	}

	tw := tabwriter.NewWriter(w.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func formatHistoryTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(historyTimeFormat)
}

// shortHash abbreviates an image hash the way git abbreviates commits.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
