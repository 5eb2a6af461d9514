package document

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// imageType is the format of every capture handed to the assembler.
const imageType = "PNG"

// Assembler accumulates tiled captures into one master PDF and hands out
// per-page PDFs that receive the same tiles.
//
// Design decision: The assembler owns the master document for the whole run
// rather than re-reading per-page PDFs at the end. Tiles are written to both
// documents in the same call, which keeps the master and the per-page files
// identical for every URL and makes the master's page order the visitation
// order by construction.
//
// An Assembler is used from the single crawl control flow and is not safe
// for concurrent use.
type Assembler struct {
	paper     fpdf.SizeType
	title     string
	compress  bool
	master    *fpdf.Fpdf
	pages     int
	images    int
	finalized bool
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithPaperSize sets the size of every page in points. Defaults to A4.
func WithPaperSize(width, height float64) AssemblerOption {
	return func(a *Assembler) {
		a.paper = fpdf.SizeType{Wd: width, Ht: height}
	}
}

// WithTitle sets the document title stored in the PDF metadata.
func WithTitle(title string) AssemblerOption {
	return func(a *Assembler) {
		a.title = title
	}
}

// WithCompression toggles stream compression. Enabled by default.
func WithCompression(enabled bool) AssemblerOption {
	return func(a *Assembler) {
		a.compress = enabled
	}
}

// NewAssembler creates an Assembler with an empty master document.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		paper:    fpdf.SizeType{Wd: DefaultPageWidth, Ht: DefaultPaperHeight},
		compress: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.master = a.newPDF()
	return a
}

// newPDF creates an empty document with no implicit first page.
func (a *Assembler) newPDF() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           a.paper,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(a.compress)
	pdf.SetCreator("sitearchive", true)
	if a.title != "" {
		pdf.SetTitle(a.title, true)
	}
	return pdf
}

// PageDocument is the per-page PDF of one visited URL.
type PageDocument struct {
	pdf   *fpdf.Fpdf
	pages int
}

// Pages returns the number of pages appended so far.
func (d *PageDocument) Pages() int {
	return d.pages
}

// BeginPage opens an empty per-page document.
func (a *Assembler) BeginPage() *PageDocument {
	return &PageDocument{pdf: a.newPDF()}
}

// AppendTiledImage appends plan.PageCount pages to both the master document
// and doc, drawing the PNG at (0, plan.Offsets[i]) scaled to plan.PageWidth.
//
// The image is registered in doc first. If it cannot be decoded an
// *InvalidImageError is returned and the master document is left untouched.
func (a *Assembler) AppendTiledImage(doc *PageDocument, png []byte, plan Plan) error {
	if a.finalized {
		return ErrAlreadyFinalized
	}
	if plan.PageCount != len(plan.Offsets) {
		return fmt.Errorf("inconsistent plan: %d pages, %d offsets", plan.PageCount, len(plan.Offsets))
	}

	a.images++
	name := fmt.Sprintf("capture-%d", a.images)
	opts := fpdf.ImageOptions{ImageType: imageType}

	doc.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if err := doc.pdf.Error(); err != nil {
		return &InvalidImageError{Width: -1, Height: -1, Err: err}
	}

	a.master.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if err := a.master.Error(); err != nil {
		return fmt.Errorf("failed to register image in master document: %w", err)
	}

	for _, y := range plan.Offsets {
		for _, pdf := range []*fpdf.Fpdf{a.master, doc.pdf} {
			pdf.AddPage()
			pdf.ImageOptions(name, 0, y, plan.PageWidth, 0, false, opts, 0, "")
		}
	}

	if err := a.master.Error(); err != nil {
		return fmt.Errorf("failed to draw master pages: %w", err)
	}
	if err := doc.pdf.Error(); err != nil {
		return fmt.Errorf("failed to draw page document: %w", err)
	}

	a.pages += plan.PageCount
	doc.pages += plan.PageCount
	return nil
}

// FinalizePage writes doc to w and releases it. A document without pages is
// rejected with ErrEmptyDocument.
func (a *Assembler) FinalizePage(doc *PageDocument, w io.Writer) error {
	if doc.pages == 0 {
		return ErrEmptyDocument
	}
	err := doc.pdf.Output(w)
	doc.pdf = nil
	if err != nil {
		return fmt.Errorf("failed to write page document: %w", err)
	}
	return nil
}

// FinalizeMaster writes every page appended during the run, in append order,
// to w. It may be called once.
func (a *Assembler) FinalizeMaster(w io.Writer) error {
	if a.finalized {
		return ErrAlreadyFinalized
	}
	if a.pages == 0 {
		return ErrEmptyDocument
	}
	a.finalized = true

	err := a.master.Output(w)
	a.master = nil
	if err != nil {
		return fmt.Errorf("failed to write master document: %w", err)
	}
	return nil
}

// MasterPages returns the number of pages in the master document.
func (a *Assembler) MasterPages() int {
	return a.pages
}

// Finalized reports whether FinalizeMaster has been called successfully.
func (a *Assembler) Finalized() bool {
	return a.finalized
}
