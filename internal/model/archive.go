package model

import (
	"time"
)

// Archive status values.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// Archive holds the state and results of one archive run.
// Pipeline steps fill it in as they execute.
//
// Design decision: Like a scan report, the Archive is passed by pointer
// through every step instead of living in package-level state. This keeps
// the crawl reproducible in tests, where a fresh Archive is created per case.
type Archive struct {
	// Site is the host name of the archived site. It names the site directory
	// and keys the run in history.
	Site string `json:"site"`

	// RootURL is the absolute URL the crawl started from.
	RootURL string `json:"root_url"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Visits is the number of pages the crawl engine tried to visit.
	Visits int `json:"visits"`

	// FrontierSize is the number of distinct URLs discovered.
	FrontierSize int `json:"frontier_size"`

	// Pages lists archived pages in visitation order.
	Pages []PageRecord `json:"pages"`

	// Failures lists abandoned branches in the order they happened.
	Failures []Failure `json:"failures,omitempty"`

	// SlugCollisions counts URLs whose slug had to be disambiguated.
	SlugCollisions int `json:"slug_collisions"`

	// MasterPath is the master document path, empty if none was written.
	MasterPath string `json:"master_path,omitempty"`

	// MasterPages is the page count of the master document.
	MasterPages int `json:"master_pages"`

	// Chunks lists chunk document paths in order.
	Chunks []string `json:"chunks,omitempty"`

	// ReportPath is the Markdown summary path, empty if none was written.
	ReportPath string `json:"report_path,omitempty"`

	// CompletedSteps lists pipeline steps that ran, in order.
	CompletedSteps []string `json:"completed_steps"`

	// TimedOut is set when the run was canceled before all steps ran.
	TimedOut bool `json:"timed_out"`

	// Error is the run-fatal error, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewArchive creates an Archive for the given site and root URL.
func NewArchive(site, rootURL string) *Archive {
	return &Archive{
		Site:           site,
		RootURL:        rootURL,
		StartedAt:      time.Now(),
		Pages:          make([]PageRecord, 0),
		Failures:       make([]Failure, 0),
		Chunks:         make([]string, 0),
		CompletedSteps: make([]string, 0),
	}
}

// AddPage appends an archived page.
func (a *Archive) AddPage(p PageRecord) {
	a.Pages = append(a.Pages, p)
}

// AddFailure appends an abandoned branch.
func (a *Archive) AddFailure(f Failure) {
	if f.At.IsZero() {
		f.At = time.Now()
	}
	a.Failures = append(a.Failures, f)
}

// TotalTiles returns the sum of the tile counts of every archived page.
// After a successful run it equals MasterPages.
func (a *Archive) TotalTiles() int {
	total := 0
	for _, p := range a.Pages {
		total += p.Tiles
	}
	return total
}

// Finish stamps the finish time.
func (a *Archive) Finish() {
	a.FinishedAt = time.Now()
}

// Duration returns how long the run took, or the time since start while running.
func (a *Archive) Duration() time.Duration {
	if a.FinishedAt.IsZero() {
		return time.Since(a.StartedAt)
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// Status summarizes the outcome of the run.
func (a *Archive) Status() string {
	switch {
	case a.TimedOut:
		return StatusCanceled
	case a.Error != nil || a.ErrorMessage != "":
		return StatusFailed
	case len(a.Failures) > 0:
		return StatusPartial
	default:
		return StatusComplete
	}
}
