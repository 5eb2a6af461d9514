package document

import "math"

// Default page geometry in PDF points (1/72 inch).
const (
	// DefaultPageWidth is the width of an A4 page. Captures are scaled to it.
	DefaultPageWidth = 595.28

	// DefaultTileHeight is the vertical step between consecutive tiles.
	// It is shorter than the paper, so each page repeats the top of the next.
	DefaultTileHeight = 800.0

	// DefaultPaperHeight is the height of an A4 page.
	DefaultPaperHeight = 841.89
)

// tileEpsilon absorbs floating point noise so that an image that exactly
// fills N pages does not get an empty N+1th page.
const tileEpsilon = 1e-9

// Plan describes how one capture is spread over fixed-size pages.
// A Plan is a value; it is never modified after NewPlan returns it.
type Plan struct {
	// PageWidth and PageHeight are the target tile size in points.
	PageWidth  float64
	PageHeight float64

	// Scale converts image pixels to points.
	Scale float64

	// ScaledHeight is the image height after scaling, in points.
	ScaledHeight float64

	// PageCount is the number of pages the image needs.
	PageCount int

	// Offsets holds, per page, the y position at which the scaled image is
	// drawn so that page i shows the image's i-th band.
	Offsets []float64
}

// NewPlan computes the tiling of an imageWidth x imageHeight pixel image onto
// pages of pageWidth x pageHeight points.
//
// The image is scaled to the page width. Page i draws the whole image at
// y = -i*pageHeight, producing a filmstrip across consecutive pages.
// An image no taller than one page yields one page at offset 0.
func NewPlan(imageWidth, imageHeight int, pageWidth, pageHeight float64) (Plan, error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return Plan{}, &InvalidImageError{Width: imageWidth, Height: imageHeight}
	}
	if pageWidth <= 0 || pageHeight <= 0 {
		return Plan{}, ErrInvalidPageSize
	}

	scale := pageWidth / float64(imageWidth)
	scaled := float64(imageHeight) * scale

	count := int(math.Ceil(scaled/pageHeight - tileEpsilon))
	if count < 1 {
		count = 1
	}

	offsets := make([]float64, count)
	for i := range offsets {
		offsets[i] = float64(-i) * pageHeight
	}

	return Plan{
		PageWidth:    pageWidth,
		PageHeight:   pageHeight,
		Scale:        scale,
		ScaledHeight: scaled,
		PageCount:    count,
		Offsets:      offsets,
	}, nil
}
