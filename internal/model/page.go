package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Raster is a full-page PNG capture of one rendered page.
// It lives only for the duration of a single page visit.
type Raster struct {
	// Data holds the encoded PNG bytes.
	Data []byte

	// Width is the image width in pixels.
	Width int

	// Height is the image height in pixels.
	Height int
}

// Hash returns the hex encoded SHA-256 of the PNG bytes.
// Two captures with the same hash rendered identically.
func (r Raster) Hash() string {
	sum := sha256.Sum256(r.Data)
	return hex.EncodeToString(sum[:])
}

// PageRecord describes one page that was archived successfully.
//
// Design decision: We keep paths relative to the archive root so that a
// record stays meaningful after the archive directory is moved or copied.
type PageRecord struct {
	// Seq is the value of the global visit counter when the page was visited.
	Seq int `json:"seq"`

	// URL is the page's URL key.
	URL string `json:"url"`

	// Slug is the base file name used for the page's artifacts.
	Slug string `json:"slug"`

	// Level is the distance from the root page (0 for the root).
	Level int `json:"level"`

	// Width and Height are the raster dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Tiles is the number of document pages the capture was split into.
	Tiles int `json:"tiles"`

	// FirstPage is the 1-based page number of the first tile in the master document.
	FirstPage int `json:"first_page"`

	// ImagePath is the mirrored screenshot path, relative to the archive root.
	ImagePath string `json:"image_path"`

	// DocumentPath is the per-page PDF path, relative to the archive root.
	DocumentPath string `json:"document_path"`

	// ImageHash is the SHA-256 of the PNG capture.
	ImageHash string `json:"image_hash"`

	// CapturedAt is when the screenshot was taken.
	CapturedAt time.Time `json:"captured_at"`
}

// LastPage returns the 1-based master page number of the page's last tile.
func (p PageRecord) LastPage() int {
	if p.Tiles == 0 {
		return p.FirstPage
	}
	return p.FirstPage + p.Tiles - 1
}

// Failure stages reported by the crawl.
const (
	StageNavigate = "navigate"
	StageCapture  = "capture"
	StagePersist  = "persist"
	StageAssemble = "assemble"
	StageLinks    = "links"
)

// Failure records a crawl branch that was abandoned.
type Failure struct {
	// URL is the page that failed.
	URL string `json:"url"`

	// Level is the distance from the root page.
	Level int `json:"level"`

	// Stage is one of the Stage* constants.
	Stage string `json:"stage"`

	// Message is the error text.
	Message string `json:"message"`

	// At is when the failure happened.
	At time.Time `json:"at"`
}
