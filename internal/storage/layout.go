package storage

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// Default artifact names, relative to the output directory.
const (
	DefaultImagesPath       = "__png__"
	DefaultChunksPath       = "__chunks__"
	DefaultAllPagesFilename = "all_pages.pdf"
	DefaultReportFilename   = "index.md"

	chunkPrefix = "chunk-"
	chunkSuffix = ".pdf"
)

// ErrInvalidURLPath is returned by URLToPath for a URL that cannot be parsed.
var ErrInvalidURLPath = errors.New("url cannot be mapped to a path")

// Layout resolves where each artifact of one archive run is stored.
type Layout struct {
	// Root is the output directory of the run.
	Root string
	// ImagesDir holds the flat <slug>.png copies of every capture.
	ImagesDir string
	// ChunksDir holds chunk-N.pdf.
	ChunksDir string
	// MasterPath is the concatenation of every page.
	MasterPath string
	// ReportPath is the Markdown index of the run.
	ReportPath string
}

// NewLayout builds a Layout below root. Relative names are joined onto root;
// absolute names are used as-is. Empty names fall back to the defaults.
func NewLayout(root, imagesPath, chunksPath, masterName string) Layout {
	return Layout{
		Root:       root,
		ImagesDir:  resolve(root, imagesPath, DefaultImagesPath),
		ChunksDir:  resolve(root, chunksPath, DefaultChunksPath),
		MasterPath: resolve(root, masterName, DefaultAllPagesFilename),
		ReportPath: filepath.Join(root, DefaultReportFilename),
	}
}

func resolve(root, name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(root, name)
}

// PageDir returns the directory that mirrors urlKey's path below Root.
func (l Layout) PageDir(urlKey string) (string, error) {
	return URLToPath(l.Root, urlKey)
}

// ImagePath returns the flat copy location for slug.
func (l Layout) ImagePath(slug string) string {
	return filepath.Join(l.ImagesDir, slug+".png")
}

// PageImagePath returns the mirrored screenshot location inside pageDir.
func PageImagePath(pageDir, slug string) string {
	return filepath.Join(pageDir, slug+".png")
}

// PageDocumentPath returns the per-page PDF location inside pageDir.
func PageDocumentPath(pageDir, slug string) string {
	return filepath.Join(pageDir, slug+".pdf")
}

// ChunkPath returns the location of the index-th chunk, 1-based.
func (l Layout) ChunkPath(index int) string {
	return ChunkPath(l.ChunksDir, index)
}

// ChunkPath returns dir/chunk-<index>.pdf.
func ChunkPath(dir string, index int) string {
	return filepath.Join(dir, chunkPrefix+strconv.Itoa(index)+chunkSuffix)
}

// ChunkGlob returns the pattern matching every chunk in dir.
func ChunkGlob(dir string) string {
	return filepath.Join(dir, chunkPrefix+"*"+chunkSuffix)
}

// URLToPath maps urlKey to a directory below root that mirrors the URL path.
// The host is not part of the result; "/" maps to root itself. Dot segments
// are resolved before joining so the result never leaves root.
func URLToPath(root, urlKey string) (string, error) {
	u, err := url.Parse(urlKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidURLPath, urlKey, err)
	}

	p := u.Path
	if u.RawQuery != "" {
		p = strings.TrimSuffix(p, "/") + "/" + sanitizeSegment(u.RawQuery)
	}

	clean := path.Clean("/" + p)
	if clean == "/" {
		return filepath.Clean(root), nil
	}

	segments := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	for i, s := range segments {
		segments[i] = sanitizeSegment(s)
	}
	return filepath.Join(append([]string{root}, segments...)...), nil
}

// sanitizeSegment replaces characters that are unsafe in file names.
func sanitizeSegment(s string) string {
	replacer := strings.NewReplacer(
		"\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_",
		"&", "_", "=", "-",
	)
	s = replacer.Replace(s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
