package crawler

import (
	"net/url"
	"strings"
)

// Filter decides whether a URL key is eligible for crawling.
type Filter struct {
	// Root is the URL prefix every in-scope key must start with.
	Root string

	// BlockedExtensions are file extensions (without the dot) whose URLs are
	// never crawled. Matching is a case-sensitive suffix match on the path.
	BlockedExtensions []string

	// BlockedSubstrings exclude any key containing one of them, such as
	// logout links or login redirects.
	BlockedSubstrings []string
}

// InScope reports whether urlKey passes the filter.
func (f Filter) InScope(urlKey string) bool {
	return InScope(urlKey, f.Root, f.BlockedExtensions, f.BlockedSubstrings)
}

// InScope reports whether urlKey starts with rootDomain, its path does not end
// in a blocked extension, and it contains none of the blocked substrings.
func InScope(urlKey, rootDomain string, blockedExtensions, blockedSubstrings []string) bool {
	if !strings.HasPrefix(urlKey, rootDomain) {
		return false
	}

	path := urlKey
	if u, err := url.Parse(urlKey); err == nil {
		path = u.Path
	}
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(path, "."+ext) {
			return false
		}
	}

	for _, sub := range blockedSubstrings {
		if strings.Contains(urlKey, sub) {
			return false
		}
	}

	return true
}
