package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/nao1215/sitearchive/internal/model"
)

// DefaultMaxDepth is the remaining depth the root page starts with.
const DefaultMaxDepth = 10

// Browser renders pages for the engine. It is driven strictly sequentially:
// Navigate, then CaptureFullPage and AnchorHrefs for the page just loaded.
type Browser interface {
	// Navigate loads url and waits until the page is settled.
	Navigate(ctx context.Context, url string) error

	// CaptureFullPage returns a full-page PNG of the current page.
	CaptureFullPage(ctx context.Context) (model.Raster, error)

	// AnchorHrefs returns every anchor target of the current page as raw strings.
	AnchorHrefs(ctx context.Context) ([]string, error)
}

// PageHandler consumes the capture of each successfully rendered page.
//
// Returning a *BranchError abandons only the current branch; any other error
// stops the crawl and is returned from Engine.Run.
type PageHandler interface {
	HandlePage(ctx context.Context, visit Visit, raster model.Raster) error
}

// Visit describes the page currently being processed.
type Visit struct {
	// URL is the page's URL key.
	URL string

	// Seq is the global visit counter, starting at 1.
	Seq int

	// Level is the distance from the root (0 for the root page).
	Level int

	// Remaining is the depth budget left for this page, including itself.
	Remaining int

	// Index and Siblings place the page among the new links of its parent.
	Index    int
	Siblings int
}

// Stats summarizes a finished crawl.
type Stats struct {
	// Visits counts pages the engine tried to visit.
	Visits int

	// Archived counts pages the handler accepted.
	Archived int

	// FrontierSize is the number of distinct URLs discovered.
	FrontierSize int

	// Failures lists abandoned branches.
	Failures []model.Failure
}

// Engine performs a depth-first, depth-bounded crawl.
//
// Design decision: We walk an explicit stack instead of recursing. Children
// are pushed in reverse so the first link is popped next, which reproduces
// recursive depth-first order exactly: one child subtree is exhausted before
// its next sibling is started. The order matters because it is the order of
// pages in the master document.
type Engine struct {
	root     string
	browser  Browser
	handler  PageHandler
	filter   Filter
	maxDepth int
	frontier *Frontier
	seedRoot bool
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxDepth sets the depth budget of the root page.
// 0 means nothing is fetched at all.
func WithMaxDepth(depth int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithBlockedExtensions sets the extensions excluded by the link filter.
func WithBlockedExtensions(exts []string) EngineOption {
	return func(e *Engine) {
		e.filter.BlockedExtensions = exts
	}
}

// WithBlockedSubstrings sets the substrings excluded by the link filter.
func WithBlockedSubstrings(subs []string) EngineOption {
	return func(e *Engine) {
		e.filter.BlockedSubstrings = subs
	}
}

// WithFrontier starts the crawl from an existing frontier.
// URLs already in it are never visited.
func WithFrontier(f *Frontier) EngineOption {
	return func(e *Engine) {
		e.frontier = f
	}
}

// WithRootSeeded puts the root and its trailing-slash alias into the
// frontier before the crawl, so home-page links never archive the root a
// second time. Without it the frontier starts empty.
func WithRootSeeded() EngineOption {
	return func(e *Engine) {
		e.seedRoot = true
	}
}

// WithEngineLogger sets the logger used for progress and failures.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine rooted at rootURL.
// rootURL must be absolute; it is normalized and used as the domain prefix of
// the link filter.
func NewEngine(rootURL string, browser Browser, handler PageHandler, opts ...EngineOption) (*Engine, error) {
	root, err := Normalize(rootURL, rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root url: %w", err)
	}

	e := &Engine{
		root:     root,
		browser:  browser,
		handler:  handler,
		filter:   Filter{Root: root},
		maxDepth: DefaultMaxDepth,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.frontier == nil {
		e.frontier = NewFrontier()
	}
	if e.seedRoot {
		e.frontier.Merge(rootAliases(root))
	}

	return e, nil
}

// Root returns the normalized root URL.
func (e *Engine) Root() string {
	return e.root
}

// Frontier returns the engine's frontier.
func (e *Engine) Frontier() *Frontier {
	return e.frontier
}

// rootAliases returns the keys that identify the root page. A bare host root
// ("https://example.com") is also reachable as "https://example.com/", which
// is how browsers report links to the home page.
func rootAliases(root string) []string {
	u, err := url.Parse(root)
	if err != nil || u.Path != "" || u.RawQuery != "" {
		return []string{root}
	}
	return []string{root, root + "/"}
}

// frame is one pending node of the traversal.
type frame struct {
	url       string
	remaining int
	index     int
	siblings  int
}

// Run crawls from the root until the stack is empty.
//
// Failures of a single page are logged, recorded in Stats and never stop the
// crawl. Run returns early only on context cancellation or on a handler error
// that is not a *BranchError; Stats is valid in both cases.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	stats := Stats{Failures: make([]model.Failure, 0)}
	stack := []frame{{url: e.root, remaining: e.maxDepth, index: 1, siblings: 1}}

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			stats.FrontierSize = e.frontier.Len()
			return stats, ctx.Err()
		default:
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.remaining <= 0 {
			continue
		}

		stats.Visits++
		visit := Visit{
			URL:       f.url,
			Seq:       stats.Visits,
			Level:     e.maxDepth - f.remaining,
			Remaining: f.remaining,
			Index:     f.index,
			Siblings:  f.siblings,
		}

		e.logger.Info("crawling",
			"visit", visit.Seq,
			"frontier", e.frontier.Len(),
			"index", visit.Index,
			"siblings", visit.Siblings,
			"url", visit.URL,
			"level", visit.Level,
		)

		children, archived, err := e.visit(ctx, visit)
		if archived {
			stats.Archived++
		}
		if err != nil {
			var failure *pageFailure
			if !errors.As(err, &failure) {
				stats.FrontierSize = e.frontier.Len()
				return stats, err
			}
			e.logger.Error("failed to crawl",
				"url", visit.URL,
				"stage", failure.stage,
				"error", failure.err,
			)
			stats.Failures = append(stats.Failures, model.Failure{
				URL:     visit.URL,
				Level:   visit.Level,
				Stage:   failure.stage,
				Message: failure.err.Error(),
			})
			continue
		}

		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				url:       children[i],
				remaining: f.remaining - 1,
				index:     i + 1,
				siblings:  len(children),
			})
		}
	}

	stats.FrontierSize = e.frontier.Len()
	return stats, nil
}

// pageFailure is a branch-local failure of one visit.
type pageFailure struct {
	stage string
	err   error
}

func (p *pageFailure) Error() string {
	return p.stage + ": " + p.err.Error()
}

func (p *pageFailure) Unwrap() error {
	return p.err
}

// visit processes a single page and returns the new links to descend into.
// The bool reports whether the handler accepted the page.
func (e *Engine) visit(ctx context.Context, v Visit) ([]string, bool, error) {
	if err := e.browser.Navigate(ctx, v.URL); err != nil {
		return nil, false, &pageFailure{stage: model.StageNavigate, err: err}
	}

	raster, err := e.browser.CaptureFullPage(ctx)
	if err != nil {
		return nil, false, &pageFailure{stage: model.StageCapture, err: err}
	}

	if err := e.handler.HandlePage(ctx, v, raster); err != nil {
		var branch *BranchError
		if errors.As(err, &branch) {
			return nil, false, &pageFailure{stage: branch.Stage, err: branch.Err}
		}
		return nil, false, fmt.Errorf("handle %s: %w", v.URL, err)
	}

	hrefs, err := e.browser.AnchorHrefs(ctx)
	if err != nil {
		return nil, true, &pageFailure{stage: model.StageLinks, err: err}
	}

	return e.discover(hrefs), true, nil
}

// discover normalizes and filters hrefs, keeps the unseen ones and adds them
// to the frontier.
func (e *Engine) discover(hrefs []string) []string {
	inScope := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		key, err := Normalize(href, e.root)
		if err != nil {
			e.logger.Debug("skipping link", "href", href, "error", err)
			continue
		}
		if !e.filter.InScope(key) {
			continue
		}
		inScope = append(inScope, key)
	}

	fresh := e.frontier.FilterNew(inScope)
	e.frontier.Merge(fresh)
	return fresh
}
