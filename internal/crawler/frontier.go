package crawler

// Frontier is the insertion-ordered set of every URL key discovered during a
// crawl. It only grows.
//
// A Frontier is owned by a single crawl and is not safe for concurrent use.
type Frontier struct {
	keys  []string
	index map[string]struct{}
}

// NewFrontier creates a frontier seeded with the given keys.
func NewFrontier(seed ...string) *Frontier {
	f := &Frontier{
		keys:  make([]string, 0, len(seed)),
		index: make(map[string]struct{}, len(seed)),
	}
	f.Merge(seed)
	return f
}

// Contains reports whether key has been seen.
func (f *Frontier) Contains(key string) bool {
	_, ok := f.index[key]
	return ok
}

// FilterNew returns the candidates that are not in the frontier yet, in input
// order, with duplicates inside candidates removed (first occurrence wins).
// The frontier itself is not modified.
func (f *Frontier) FilterNew(candidates []string) []string {
	fresh := make([]string, 0, len(candidates))
	batch := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if f.Contains(c) {
			continue
		}
		if _, dup := batch[c]; dup {
			continue
		}
		batch[c] = struct{}{}
		fresh = append(fresh, c)
	}
	return fresh
}

// Merge adds keys to the frontier, keeping first-seen order. Keys already
// present are ignored, so merging twice is the same as merging once.
// It returns the number of keys that were actually added.
func (f *Frontier) Merge(keys []string) int {
	added := 0
	for _, k := range keys {
		if f.Contains(k) {
			continue
		}
		f.index[k] = struct{}{}
		f.keys = append(f.keys, k)
		added++
	}
	return added
}

// Len returns the number of distinct keys seen.
func (f *Frontier) Len() int {
	return len(f.keys)
}

// Keys returns a copy of the keys in first-seen order.
func (f *Frontier) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}
