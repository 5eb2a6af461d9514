package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/nao1215/sitearchive/internal/crawler"
	"github.com/nao1215/sitearchive/internal/document"
	"github.com/nao1215/sitearchive/internal/model"
	"github.com/nao1215/sitearchive/internal/storage"
)

// PageArchiver stores each captured page while the crawl runs.
//
// For every page it writes the PNG to the mirrored URL directory and to the
// flat images directory, tiles the capture into the master document and a
// per-page PDF, and records the page in the archive.
//
// Design decision: Errors caused by the page itself (an image the PDF
// writer cannot decode, a URL that cannot be mapped to a directory) only
// abandon that page's branch. Disk write failures abort the crawl, because
// every later page would fail the same way.
type PageArchiver struct {
	layout    storage.Layout
	fs        storage.FS
	assembler *document.Assembler
	archive   *model.Archive
	slugs     *crawler.SlugRegistry

	pageWidth  float64
	tileHeight float64

	logger *slog.Logger
	now    func() time.Time
}

var _ crawler.PageHandler = (*PageArchiver)(nil)

// ArchiverOption configures a PageArchiver.
type ArchiverOption func(*PageArchiver)

// WithArchiverFS sets the filesystem artifacts are written to.
func WithArchiverFS(fsys storage.FS) ArchiverOption {
	return func(a *PageArchiver) {
		a.fs = fsys
	}
}

// WithTileSize sets the width pages are scaled to and the vertical step
// between tiles, in points.
func WithTileSize(pageWidth, tileHeight float64) ArchiverOption {
	return func(a *PageArchiver) {
		if pageWidth > 0 {
			a.pageWidth = pageWidth
		}
		if tileHeight > 0 {
			a.tileHeight = tileHeight
		}
	}
}

// WithArchiverLogger sets the logger.
func WithArchiverLogger(logger *slog.Logger) ArchiverOption {
	return func(a *PageArchiver) {
		a.logger = logger
	}
}

// NewPageArchiver creates a PageArchiver that writes below layout and
// appends to assembler. Archived pages are recorded in archive.
func NewPageArchiver(layout storage.Layout, assembler *document.Assembler, archive *model.Archive, opts ...ArchiverOption) *PageArchiver {
	a := &PageArchiver{
		layout:     layout,
		fs:         storage.OSFS{},
		assembler:  assembler,
		archive:    archive,
		slugs:      crawler.NewSlugRegistry(),
		pageWidth:  document.DefaultPageWidth,
		tileHeight: document.DefaultTileHeight,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandlePage implements crawler.PageHandler.
//
// Nothing is written and no slug is taken until the capture has been added
// to the documents, so an abandoned page leaves no files behind.
func (a *PageArchiver) HandlePage(_ context.Context, visit crawler.Visit, raster model.Raster) error {
	pageDir, err := a.layout.PageDir(visit.URL)
	if err != nil {
		return crawler.NewBranchError(visit.URL, model.StagePersist, err)
	}

	plan, err := document.NewPlan(raster.Width, raster.Height, a.pageWidth, a.tileHeight)
	if err != nil {
		var invalid *document.InvalidImageError
		if errors.As(err, &invalid) {
			return crawler.NewBranchError(visit.URL, model.StageAssemble, err)
		}
		return err
	}

	firstPage := a.assembler.MasterPages() + 1
	doc := a.assembler.BeginPage()
	if err := a.assembler.AppendTiledImage(doc, raster.Data, plan); err != nil {
		var invalid *document.InvalidImageError
		if errors.As(err, &invalid) {
			return crawler.NewBranchError(visit.URL, model.StageAssemble, err)
		}
		return err
	}

	slug, collided := a.slugs.Assign(visit.URL)
	if collided {
		a.archive.SlugCollisions++
		a.logger.Warn("slug collision", "url", visit.URL, "slug", slug)
	}

	imagePath := storage.PageImagePath(pageDir, slug)
	if err := a.fs.WriteFile(imagePath, raster.Data); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	if err := a.fs.WriteFile(a.layout.ImagePath(slug), raster.Data); err != nil {
		return fmt.Errorf("failed to write screenshot copy: %w", err)
	}

	var buf bytes.Buffer
	if err := a.assembler.FinalizePage(doc, &buf); err != nil {
		return err
	}
	documentPath := storage.PageDocumentPath(pageDir, slug)
	if err := a.fs.WriteFile(documentPath, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write page document: %w", err)
	}

	a.archive.AddPage(model.PageRecord{
		Seq:          visit.Seq,
		URL:          visit.URL,
		Slug:         slug,
		Level:        visit.Level,
		Width:        raster.Width,
		Height:       raster.Height,
		Tiles:        plan.PageCount,
		FirstPage:    firstPage,
		ImagePath:    a.relative(imagePath),
		DocumentPath: a.relative(documentPath),
		ImageHash:    raster.Hash(),
		CapturedAt:   a.now(),
	})

	a.logger.Debug("archived page",
		"url", visit.URL,
		"slug", slug,
		"tiles", plan.PageCount,
		"first_page", firstPage,
	)
	return nil
}

// relative returns p relative to the archive root.
func (a *PageArchiver) relative(p string) string {
	rel, err := filepath.Rel(a.layout.Root, p)
	if err != nil {
		return p
	}
	return rel
}
