// Package database provides SQLite-based archive history for sitearchive.
//
// This package implements the ArchiveDB, which stores:
//   - One row per archive run with its outcome and the full run as JSON
//   - One row per archived page, so a URL can be traced across runs
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
//
// History is optional: the archive on disk is complete without it.
package database
