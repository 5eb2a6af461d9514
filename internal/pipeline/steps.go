package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nao1215/sitearchive/internal/capture"
	"github.com/nao1215/sitearchive/internal/crawler"
	"github.com/nao1215/sitearchive/internal/document"
	"github.com/nao1215/sitearchive/internal/model"
	"github.com/nao1215/sitearchive/internal/report"
	"github.com/nao1215/sitearchive/internal/storage"
)

// Step names, as recorded in model.Archive.CompletedSteps.
const (
	StepLogin    = "login"
	StepCrawl    = "crawl"
	StepFinalize = "finalize_master"
	StepSplit    = "split"
	StepReport   = "report"
)

// Authenticator performs the login that precedes the crawl.
// *capture.Browser implements it.
type Authenticator interface {
	Login(ctx context.Context, creds capture.Credentials) error
}

// LoginStep logs in before the crawl so that every page is captured with
// the session cookies.
//
// Design decision: A failed login aborts the run. Crawling anyway would
// archive the login page in place of every protected page, which looks
// like a successful archive but is not.
type LoginStep struct {
	auth  Authenticator
	creds capture.Credentials
}

// NewLoginStep creates a login step.
func NewLoginStep(auth Authenticator, creds capture.Credentials) *LoginStep {
	return &LoginStep{auth: auth, creds: creds}
}

// Name returns the step name.
func (s *LoginStep) Name() string {
	return StepLogin
}

// Do executes the login.
func (s *LoginStep) Do(ctx context.Context, _ *model.Archive) error {
	return s.auth.Login(ctx, s.creds)
}

// CrawlStep walks the site depth-first and hands every page to a handler,
// usually a PageArchiver.
type CrawlStep struct {
	browser crawler.Browser
	handler crawler.PageHandler
	opts    []crawler.EngineOption
}

// NewCrawlStep creates a crawl step. opts configure the crawl engine.
func NewCrawlStep(browser crawler.Browser, handler crawler.PageHandler, opts ...crawler.EngineOption) *CrawlStep {
	return &CrawlStep{
		browser: browser,
		handler: handler,
		opts:    opts,
	}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do runs the crawl from archive.RootURL. The visit counters and branch
// failures are recorded even when the crawl stops early.
func (s *CrawlStep) Do(ctx context.Context, archive *model.Archive) error {
	engine, err := crawler.NewEngine(archive.RootURL, s.browser, s.handler, s.opts...)
	if err != nil {
		return err
	}

	stats, err := engine.Run(ctx)
	archive.Visits = stats.Visits
	archive.FrontierSize = stats.FrontierSize
	for _, f := range stats.Failures {
		archive.AddFailure(f)
	}
	return err
}

// FinalizeStep writes the master document once the crawl is over.
type FinalizeStep struct {
	assembler *document.Assembler
	fs        storage.FS
	path      string
	logger    *slog.Logger
}

// NewFinalizeStep creates a step that writes the assembler's master
// document to path.
func NewFinalizeStep(assembler *document.Assembler, fsys storage.FS, path string, logger *slog.Logger) *FinalizeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FinalizeStep{
		assembler: assembler,
		fs:        fsys,
		path:      path,
		logger:    logger,
	}
}

// Name returns the step name.
func (s *FinalizeStep) Name() string {
	return StepFinalize
}

// Do writes the master document. A crawl that archived nothing leaves no
// master document and is not an error.
func (s *FinalizeStep) Do(_ context.Context, archive *model.Archive) error {
	if s.assembler.MasterPages() == 0 {
		s.logger.Warn("no pages archived, master document not written")
		return nil
	}

	var buf bytes.Buffer
	if err := s.assembler.FinalizeMaster(&buf); err != nil {
		return err
	}
	if err := s.fs.WriteFile(s.path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write master document: %w", err)
	}

	archive.MasterPath = s.path
	archive.MasterPages = s.assembler.MasterPages()
	s.logger.Info("master document written", "path", s.path, "pages", archive.MasterPages)
	return nil
}

// SplitStep splits the master document into chunks.
type SplitStep struct {
	splitter  *document.Splitter
	chunkSize int
	outputDir string
}

// NewSplitStep creates a split step writing chunks of chunkSize pages to outputDir.
func NewSplitStep(splitter *document.Splitter, chunkSize int, outputDir string) *SplitStep {
	return &SplitStep{
		splitter:  splitter,
		chunkSize: chunkSize,
		outputDir: outputDir,
	}
}

// Name returns the step name.
func (s *SplitStep) Name() string {
	return StepSplit
}

// Do splits archive.MasterPath. Without a master document there is nothing
// to split.
func (s *SplitStep) Do(ctx context.Context, archive *model.Archive) error {
	if archive.MasterPath == "" {
		return nil
	}

	chunks, err := s.splitter.Split(ctx, archive.MasterPath, s.chunkSize, s.outputDir)
	if err != nil {
		return err
	}
	archive.Chunks = chunks

	if archive.MasterPages == 0 {
		// The split command starts from an existing file.
		if n, err := s.splitter.PageCount(archive.MasterPath); err == nil {
			archive.MasterPages = n
		}
	}
	return nil
}

// ReportStep writes the Markdown index of the archive.
type ReportStep struct {
	fs   storage.FS
	path string
}

// NewReportStep creates a step writing index.md to path. Links in it are
// relative to the directory of path.
func NewReportStep(fsys storage.FS, path string) *ReportStep {
	return &ReportStep{fs: fsys, path: path}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return StepReport
}

// Do renders and writes the index.
func (s *ReportStep) Do(_ context.Context, archive *model.Archive) error {
	archive.Finish()
	archive.ReportPath = s.path

	var buf bytes.Buffer
	w := report.NewMarkdownWriter(&buf, report.WithBaseDir(filepath.Dir(s.path)))
	if _, err := w.Write(archive); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := s.fs.WriteFile(s.path, buf.Bytes()); err != nil {
		archive.ReportPath = ""
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
