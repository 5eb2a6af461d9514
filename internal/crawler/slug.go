package crawler

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// slugHashLen is the number of hex characters appended to a colliding slug.
const slugHashLen = 8

// SlugRegistry hands out slugs that are unique within one archive run.
//
// Slugify collapses punctuation, so "https://a.com/x-y" and "https://a.com/x_y?"
// style pairs can end up on the same slug and overwrite each other's files.
// The first URL keeps the plain slug; later URLs that collide get a short
// SHA3-256 suffix of their URL key.
type SlugRegistry struct {
	byKey  map[string]string
	bySlug map[string]string
}

// NewSlugRegistry creates an empty registry.
func NewSlugRegistry() *SlugRegistry {
	return &SlugRegistry{
		byKey:  make(map[string]string),
		bySlug: make(map[string]string),
	}
}

// Assign returns the slug for urlKey. The returned bool reports whether the
// plain slug was already owned by another URL and had to be disambiguated.
// Calling Assign again with the same key returns the same slug.
func (r *SlugRegistry) Assign(urlKey string) (string, bool) {
	if slug, ok := r.byKey[urlKey]; ok {
		return slug, false
	}

	slug := Slugify(urlKey)
	collided := false
	if owner, taken := r.bySlug[slug]; taken && owner != urlKey {
		collided = true
		slug = slug + "-" + shortHash(urlKey)
	}

	r.byKey[urlKey] = slug
	r.bySlug[slug] = urlKey
	return slug, collided
}

// Len returns the number of URLs that received a slug.
func (r *SlugRegistry) Len() int {
	return len(r.byKey)
}

func shortHash(s string) string {
	sum := sha3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:slugHashLen]
}
