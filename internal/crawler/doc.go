// Package crawler discovers the pages of a website and decides the order in
// which they are archived.
//
// # Architecture
//
// The package is built leaf-first:
//
//   - Normalize / Slugify: turn raw links into URL keys and file names
//   - SlugRegistry: keeps slugs unique within a run
//   - Filter / InScope: domain prefix, blocked extensions, blocked substrings
//   - Frontier: insertion-ordered set of every URL key seen so far
//   - Engine: depth-first, depth-bounded traversal over a Browser
//   - Parser: extracts anchor targets from rendered HTML
//
// Design decision: The engine knows nothing about screenshots, PDFs or the
// filesystem. It talks to a Browser for rendering and hands every capture to
// a PageHandler. This keeps traversal order testable with fakes; the order is
// what ties the crawl to the page order of the master document.
//
// # Traversal
//
// The root starts with a depth budget (DefaultMaxDepth). Every child gets its
// parent's budget minus one and a page with no budget left is skipped without
// fetching. Links are discovered after a page has been handed to the
// PageHandler, normalized against the root, filtered, and deduplicated against
// the frontier before they are merged into it.
//
// # Failures
//
// Navigation, capture and link extraction errors abandon only the branch of
// the page that failed. A PageHandler decides per error: a *BranchError is
// branch-local, anything else stops the crawl.
//
// # Usage
//
//	engine, err := crawler.NewEngine("https://example.com", browser, handler,
//	    crawler.WithMaxDepth(10),
//	    crawler.WithBlockedSubstrings([]string{"logout"}),
//	)
//	stats, err := engine.Run(ctx)
package crawler
