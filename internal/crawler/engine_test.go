package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/nao1215/sitearchive/internal/model"
)

// fakeSite is a Browser serving a fixed link graph.
type fakeSite struct {
	links        map[string][]string
	heights      map[string]int
	failNavigate map[string]error
	failLinks    map[string]error
	navigated    []string
	current      string
}

func newFakeSite(links map[string][]string) *fakeSite {
	return &fakeSite{
		links:        links,
		heights:      make(map[string]int),
		failNavigate: make(map[string]error),
		failLinks:    make(map[string]error),
	}
}

// Navigate implements Browser.Navigate.
func (f *fakeSite) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	if err := f.failNavigate[url]; err != nil {
		return err
	}
	f.current = url
	return nil
}

// CaptureFullPage implements Browser.CaptureFullPage.
func (f *fakeSite) CaptureFullPage(_ context.Context) (model.Raster, error) {
	h := f.heights[f.current]
	if h == 0 {
		h = 1000
	}
	return model.Raster{Data: []byte(f.current), Width: 1000, Height: h}, nil
}

// AnchorHrefs implements Browser.AnchorHrefs.
func (f *fakeSite) AnchorHrefs(_ context.Context) ([]string, error) {
	if err := f.failLinks[f.current]; err != nil {
		return nil, err
	}
	return f.links[f.current], nil
}

// recordingHandler is a PageHandler that remembers every visit.
type recordingHandler struct {
	visits []Visit
	errs   map[string]error
}

// HandlePage implements PageHandler.HandlePage.
func (h *recordingHandler) HandlePage(_ context.Context, v Visit, _ model.Raster) error {
	if err := h.errs[v.URL]; err != nil {
		return err
	}
	h.visits = append(h.visits, v)
	return nil
}

func (h *recordingHandler) urls() []string {
	out := make([]string, len(h.visits))
	for i, v := range h.visits {
		out[i] = v.URL
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleGraph is root -> {A, B}, A -> {C}.
func sampleGraph() map[string][]string {
	return map[string][]string{
		"https://x.com":   {"/a", "/b"},
		"https://x.com/a": {"/c"},
		"https://x.com/b": {"/a#again"},
		"https://x.com/c": {},
	}
}

func newTestEngine(t *testing.T, site *fakeSite, handler PageHandler, opts ...EngineOption) *Engine {
	t.Helper()

	opts = append([]EngineOption{WithEngineLogger(discardLogger())}, opts...)
	e, err := NewEngine("https://x.com", site, handler, opts...)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return e
}

// TestEngineOrder tests depth-first visitation order.
func TestEngineOrder(t *testing.T) {
	t.Parallel()

	t.Run("visits depth-first in link order", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler)

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"https://x.com", "https://x.com/a", "https://x.com/c", "https://x.com/b"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visit order = %v, want %v", got, want)
		}
		if stats.Visits != 4 || stats.Archived != 4 {
			t.Errorf("expected 4 visits and 4 archived, got %d/%d", stats.Visits, stats.Archived)
		}
		if len(stats.Failures) != 0 {
			t.Errorf("expected no failures, got %v", stats.Failures)
		}
	})

	t.Run("visit metadata", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler)

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []Visit{
			{URL: "https://x.com", Seq: 1, Level: 0, Remaining: 10, Index: 1, Siblings: 1},
			{URL: "https://x.com/a", Seq: 2, Level: 1, Remaining: 9, Index: 1, Siblings: 2},
			{URL: "https://x.com/c", Seq: 3, Level: 2, Remaining: 8, Index: 1, Siblings: 1},
			{URL: "https://x.com/b", Seq: 4, Level: 1, Remaining: 9, Index: 2, Siblings: 2},
		}
		if !reflect.DeepEqual(handler.visits, want) {
			t.Errorf("visits = %+v, want %+v", handler.visits, want)
		}
	})

	t.Run("frontier keeps discovery order", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		e := newTestEngine(t, site, &recordingHandler{})

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"https://x.com/a", "https://x.com/b", "https://x.com/c"}
		if got := e.Frontier().Keys(); !reflect.DeepEqual(got, want) {
			t.Errorf("frontier = %v, want %v", got, want)
		}
		if stats.FrontierSize != len(want) {
			t.Errorf("expected frontier size %d, got %d", len(want), stats.FrontierSize)
		}
	})
}

// TestEngineDepth tests the depth budget.
func TestEngineDepth(t *testing.T) {
	t.Parallel()

	t.Run("depth zero fetches nothing", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler, WithMaxDepth(0))

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(site.navigated) != 0 {
			t.Errorf("expected no fetches, got %v", site.navigated)
		}
		if len(handler.visits) != 0 || stats.Visits != 0 {
			t.Errorf("expected no pages, got %d", len(handler.visits))
		}
	})

	t.Run("depth one fetches only the root", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler, WithMaxDepth(1))

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := handler.urls(); !reflect.DeepEqual(got, []string{"https://x.com"}) {
			t.Errorf("unexpected visits %v", got)
		}
		if !e.Frontier().Contains("https://x.com/a") {
			t.Error("links of the last level must still enter the frontier")
		}
	})

	t.Run("depth two stops before grandchildren", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler, WithMaxDepth(2))

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://x.com", "https://x.com/a", "https://x.com/b"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
	})
}

// TestEngineFailures tests branch-local and fatal failures.
func TestEngineFailures(t *testing.T) {
	t.Parallel()

	t.Run("navigation failure abandons only that branch", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		site.failNavigate["https://x.com/a"] = errors.New("net::ERR_CONNECTION_RESET")
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler)

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("branch failure must not fail the run: %v", err)
		}

		want := []string{"https://x.com", "https://x.com/b"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
		if len(stats.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(stats.Failures))
		}
		f := stats.Failures[0]
		if f.URL != "https://x.com/a" || f.Stage != model.StageNavigate || f.Level != 1 {
			t.Errorf("unexpected failure %+v", f)
		}
		if stats.Visits != 3 || stats.Archived != 2 {
			t.Errorf("expected 3 visits / 2 archived, got %d/%d", stats.Visits, stats.Archived)
		}
	})

	t.Run("branch error from handler abandons only that branch", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{errs: map[string]error{
			"https://x.com/a": NewBranchError("https://x.com/a", model.StageAssemble, errors.New("bad image")),
		}}
		e := newTestEngine(t, site, handler)

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := handler.urls(); !reflect.DeepEqual(got, []string{"https://x.com", "https://x.com/b"}) {
			t.Errorf("unexpected visits %v", got)
		}
		if len(stats.Failures) != 1 || stats.Failures[0].Stage != model.StageAssemble {
			t.Errorf("unexpected failures %+v", stats.Failures)
		}
		if stats.Failures[0].Message != "bad image" {
			t.Errorf("unexpected message %q", stats.Failures[0].Message)
		}
	})

	t.Run("link extraction failure keeps the page but not its children", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		site.failLinks["https://x.com/a"] = errors.New("detached frame")
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler)

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://x.com", "https://x.com/a", "https://x.com/b"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
		if stats.Archived != 3 {
			t.Errorf("expected 3 archived, got %d", stats.Archived)
		}
		if len(stats.Failures) != 1 || stats.Failures[0].Stage != model.StageLinks {
			t.Errorf("unexpected failures %+v", stats.Failures)
		}
	})

	t.Run("other handler errors stop the crawl", func(t *testing.T) {
		t.Parallel()

		errDiskFull := errors.New("disk full")
		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{errs: map[string]error{"https://x.com/a": errDiskFull}}
		e := newTestEngine(t, site, handler)

		stats, err := e.Run(context.Background())
		if !errors.Is(err, errDiskFull) {
			t.Fatalf("expected disk full error, got %v", err)
		}
		if got := handler.urls(); !reflect.DeepEqual(got, []string{"https://x.com"}) {
			t.Errorf("unexpected visits %v", got)
		}
		if stats.Visits != 2 {
			t.Errorf("expected 2 visits, got %d", stats.Visits)
		}
	})

	t.Run("canceled context stops before the first visit", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		site := newFakeSite(sampleGraph())
		e := newTestEngine(t, site, &recordingHandler{})

		_, err := e.Run(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(site.navigated) != 0 {
			t.Errorf("expected no fetches, got %v", site.navigated)
		}
	})
}

// TestEngineFiltering tests link filtering during discovery.
func TestEngineFiltering(t *testing.T) {
	t.Parallel()

	t.Run("blocked and foreign links are not followed", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string][]string{
			"https://x.com": {
				"/manual.pdf",
				"/user/logout",
				"https://other.com/page",
				"mailto:info@x.com",
				"/ok",
			},
		})
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler,
			WithBlockedExtensions(testExtensions),
			WithBlockedSubstrings(testSubstrings),
		)

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://x.com", "https://x.com/ok"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
	})

	t.Run("seeded frontier urls are never visited", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(sampleGraph())
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler, WithFrontier(NewFrontier("https://x.com/b")))

		if _, err := e.Run(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://x.com", "https://x.com/a", "https://x.com/c"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
	})

	t.Run("frontier starts empty", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string][]string{
			"https://x.com":  {"https://x.com/", "/"},
			"https://x.com/": {"/a"},
		})
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler)
		if e.Frontier().Len() != 0 {
			t.Fatalf("expected empty frontier, got %v", e.Frontier().Keys())
		}

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://x.com", "https://x.com/", "https://x.com/a"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
		if stats.FrontierSize != 2 {
			t.Errorf("expected frontier size 2, got %d", stats.FrontierSize)
		}
	})

	t.Run("seeded root is not revisited through a home link", func(t *testing.T) {
		t.Parallel()

		site := newFakeSite(map[string][]string{
			"https://x.com":  {"https://x.com/", "/", "/a"},
			"https://x.com/": {"/b"},
		})
		handler := &recordingHandler{}
		e := newTestEngine(t, site, handler, WithRootSeeded())

		stats, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://x.com", "https://x.com/a"}
		if got := handler.urls(); !reflect.DeepEqual(got, want) {
			t.Errorf("visits = %v, want %v", got, want)
		}
		wantFrontier := []string{"https://x.com", "https://x.com/", "https://x.com/a"}
		if got := e.Frontier().Keys(); !reflect.DeepEqual(got, wantFrontier) {
			t.Errorf("frontier = %v, want %v", got, wantFrontier)
		}
		if stats.FrontierSize != len(wantFrontier) {
			t.Errorf("expected frontier size %d, got %d", len(wantFrontier), stats.FrontierSize)
		}
	})

	t.Run("seeding a path root adds no alias", func(t *testing.T) {
		t.Parallel()

		e, err := NewEngine("https://x.com/docs", newFakeSite(nil), &recordingHandler{},
			WithEngineLogger(discardLogger()), WithRootSeeded())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := e.Frontier().Keys(); !reflect.DeepEqual(got, []string{"https://x.com/docs"}) {
			t.Errorf("frontier = %v", got)
		}
	})
}

// TestNewEngine tests engine construction.
func TestNewEngine(t *testing.T) {
	t.Parallel()

	t.Run("rejects relative root", func(t *testing.T) {
		t.Parallel()

		_, err := NewEngine("example.com", newFakeSite(nil), &recordingHandler{})
		var invalid *InvalidURLError
		if !errors.As(err, &invalid) {
			t.Fatalf("expected *InvalidURLError, got %v", err)
		}
	})

	t.Run("strips fragment from root", func(t *testing.T) {
		t.Parallel()

		e, err := NewEngine("https://x.com/start#top", newFakeSite(nil), &recordingHandler{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Root() != "https://x.com/start" {
			t.Errorf("unexpected root %q", e.Root())
		}
	})
}
