// Package report renders the outcome of archive runs.
//
// Three writers share the Writer interface: SimpleWriter prints the terminal
// summary, JSONWriter emits a machine-readable summary and MarkdownWriter
// produces the index.md stored next to the archived documents. HistoryWriter
// renders the run history kept by the database package.
package report
