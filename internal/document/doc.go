// Package document turns full-page captures into PDFs.
//
// A capture is scaled to the page width and laid over as many fixed-height
// pages as it needs (see NewPlan). The Assembler writes those pages both to
// a per-URL document and to one master document that accumulates every page
// of the run in visitation order. After the crawl the Splitter cuts the
// master into chunk-N.pdf files of a fixed number of pages.
//
// PDF generation uses go-pdf/fpdf. Reading and splitting finished documents
// uses pdfcpu.
package document
