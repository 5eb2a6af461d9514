package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/nao1215/sitearchive/internal/storage"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the number of pages per chunk when none is configured.
const DefaultChunkSize = 50

// ChunkRange is a contiguous, 1-based, inclusive run of master pages.
type ChunkRange struct {
	// Index is the 1-based chunk number used in the file name.
	Index int
	Start int
	End   int
}

// Pages returns the number of pages in the range.
func (r ChunkRange) Pages() int {
	return r.End - r.Start + 1
}

// selection renders the range in pdfcpu's page selection syntax.
func (r ChunkRange) selection() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// ChunkRanges partitions total pages into consecutive ranges of size pages.
// Every range is full except possibly the last. A total of zero yields no
// ranges.
func ChunkRanges(total, size int) ([]ChunkRange, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}
	if total <= 0 {
		return nil, nil
	}

	ranges := make([]ChunkRange, 0, (total+size-1)/size)
	for start := 1; start <= total; start += size {
		end := min(start+size-1, total)
		ranges = append(ranges, ChunkRange{
			Index: len(ranges) + 1,
			Start: start,
			End:   end,
		})
	}
	return ranges, nil
}

// Splitter cuts a finished master PDF into chunk-N.pdf files.
type Splitter struct {
	fs          storage.FS
	conf        *model.Configuration
	concurrency int
	logger      *slog.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithFS sets the filesystem used to read the master and write chunks.
func WithFS(fsys storage.FS) SplitterOption {
	return func(s *Splitter) {
		s.fs = fsys
	}
}

// WithConcurrency limits how many chunks are extracted at once.
// Values below one fall back to the number of CPUs.
func WithConcurrency(n int) SplitterOption {
	return func(s *Splitter) {
		s.concurrency = n
	}
}

// WithSplitterLogger sets the logger.
func WithSplitterLogger(logger *slog.Logger) SplitterOption {
	return func(s *Splitter) {
		s.logger = logger
	}
}

// WithConfiguration sets the pdfcpu configuration. The splitter never
// mutates it; each extraction works on a copy.
func WithConfiguration(conf *model.Configuration) SplitterOption {
	return func(s *Splitter) {
		s.conf = conf
	}
}

// NewSplitter creates a Splitter. By default it uses the local filesystem
// and relaxed PDF validation.
func NewSplitter(opts ...SplitterOption) *Splitter {
	s := &Splitter{
		fs: storage.OSFS{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = runtime.NumCPU()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.conf == nil {
		s.conf = model.NewDefaultConfiguration()
		s.conf.ValidationMode = model.ValidationRelaxed
	}
	return s
}

// PageCount loads the PDF at path and returns its number of pages.
func (s *Splitter) PageCount(path string) (int, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return 0, &DocumentLoadError{Path: path, Err: err}
	}
	return s.pageCount(path, data)
}

func (s *Splitter) pageCount(path string, data []byte) (int, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), s.config())
	if err != nil {
		return 0, &DocumentLoadError{Path: path, Err: err}
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, &DocumentLoadError{Path: path, Err: err}
	}
	return ctx.PageCount, nil
}

// config returns a private copy of the configuration. pdfcpu records the
// running command in it, so concurrent operations must not share one.
func (s *Splitter) config() *model.Configuration {
	c := *s.conf
	return &c
}

// Split writes the master at masterPath into chunks of chunkSize pages below
// outputDir and returns the chunk paths in order. Chunk i holds master pages
// (i-1)*chunkSize+1 through min(i*chunkSize, total).
//
// Chunks left in outputDir by an earlier run are removed first. If any chunk
// cannot be produced, the chunks written by this call are removed and the
// error is returned, so outputDir never holds a partial set.
func (s *Splitter) Split(ctx context.Context, masterPath string, chunkSize int, outputDir string) ([]string, error) {
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}

	data, err := s.fs.ReadFile(masterPath)
	if err != nil {
		return nil, &DocumentLoadError{Path: masterPath, Err: err}
	}
	total, err := s.pageCount(masterPath, data)
	if err != nil {
		return nil, err
	}

	ranges, err := ChunkRanges(total, chunkSize)
	if err != nil {
		return nil, err
	}

	if err := s.fs.EnsureDir(outputDir); err != nil {
		return nil, err
	}
	if err := s.removeStale(outputDir); err != nil {
		return nil, err
	}

	s.logger.Info("splitting document",
		"path", masterPath,
		"pages", total,
		"chunk_size", chunkSize,
		"chunks", len(ranges),
	)

	paths := make([]string, len(ranges))
	written := make([]bool, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, r := range ranges {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := api.Trim(bytes.NewReader(data), &buf, []string{r.selection()}, s.config()); err != nil {
				return fmt.Errorf("failed to extract pages %d-%d: %w", r.Start, r.End, err)
			}

			path := storage.ChunkPath(outputDir, r.Index)
			if err := s.fs.WriteFile(path, buf.Bytes()); err != nil {
				return err
			}
			paths[i] = path
			written[i] = true

			s.logger.Debug("chunk written",
				"path", path,
				"start", r.Start,
				"end", r.End,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var cleanupErrs []error
		for i, ok := range written {
			if !ok {
				continue
			}
			if rmErr := s.fs.Remove(paths[i]); rmErr != nil {
				cleanupErrs = append(cleanupErrs, rmErr)
			}
		}
		return nil, errors.Join(append([]error{err}, cleanupErrs...)...)
	}

	return paths, nil
}

func (s *Splitter) removeStale(dir string) error {
	stale, err := s.fs.Glob(storage.ChunkGlob(dir))
	if err != nil {
		return err
	}
	for _, name := range stale {
		if err := s.fs.Remove(name); err != nil {
			return err
		}
	}
	return nil
}
