// Package model defines the data structures shared across sitearchive.
//
// This package contains the following main types:
//   - Raster: a full-page PNG capture handed from the browser to the assembler
//   - PageRecord: one archived page and where its artifacts were written
//   - Failure: one abandoned crawl branch
//   - Archive: the state and result of a whole run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, the pipeline, the reports and the history
// database all need these types, so centralizing them prevents import cycles.
//
// The models are serializable to JSON for reports and database storage.
package model
