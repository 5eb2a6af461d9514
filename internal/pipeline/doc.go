// Package pipeline runs one archive of a site as a sequence of steps.
//
// A run is: log in (optional), crawl, finalize the master document, split it
// into chunks and write the Markdown index. Each stage is a Step that
// receives the current model.Archive and records its results in it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It provides consistent error handling and logging across steps
// 2. It supports cancellation via context between long-running stages
// 3. It lets the split command run the split step on its own
//
// PageArchiver is the crawl engine's page handler. It persists every capture
// and feeds the document assembler while the crawl is running.
package pipeline
