package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize turns a raw link discovered on a page into a URL key.
//
// Everything from the first '#' onward is dropped. A link starting with '/'
// is resolved against rootDomain by plain concatenation, except for
// protocol-relative links ("//host/path"), which take the root's scheme.
// The result must be an absolute URL with a host, otherwise an
// *InvalidURLError is returned.
func Normalize(rawLink, rootDomain string) (string, error) {
	key := strings.TrimSpace(rawLink)
	if i := strings.IndexByte(key, '#'); i >= 0 {
		key = key[:i]
	}

	switch {
	case strings.HasPrefix(key, "//"):
		scheme := "https"
		if root, err := url.Parse(rootDomain); err == nil && root.Scheme != "" {
			scheme = root.Scheme
		}
		key = scheme + ":" + key
	case strings.HasPrefix(key, "/"):
		key = strings.TrimSuffix(rootDomain, "/") + key
	}

	u, err := url.Parse(key)
	if err != nil {
		return "", &InvalidURLError{Raw: rawLink, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return "", &InvalidURLError{Raw: rawLink, Err: errNotAbsolute}
	}

	return key, nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonWordRun    = regexp.MustCompile(`[^\w-]+`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a filesystem-safe name from a URL key.
// It never fails; distinct keys may produce the same slug (see SlugRegistry).
func Slugify(urlKey string) string {
	// A Caser is stateful, so each call gets its own.
	s := strings.TrimSpace(cases.Lower(language.Und).String(urlKey))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonWordRun.ReplaceAllString(s, "-")
	return hyphenRun.ReplaceAllString(s, "-")
}
