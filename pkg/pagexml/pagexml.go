// Package pagexml implements reading, line extraction, and text write-back for
// PAGE XML layout documents, the per-page annotation format used by document
// transcription projects.
//
// This package provides:
//
// - A mutable document model for a single PAGE file, with namespace-aware lookup
// - Extraction of normalized line records (polygon, orientation, transcription)
// - A write-back tracker that re-attaches recognized text to the right TextLine
//   node and serializes each page exactly once
//
// The package implements the structure defined by the PAGE format:
// Document → Page → TextRegion → TextLine → Coords / TextEquiv → Unicode.
//
// Key Types:
//
// - Document: a parsed PAGE file, owning the element tree
// - Loader: walks a Document and yields LineRecord values per TextLine
// - LineRecord: flattened snapshot of one line, carrying a handle for write-back
// - Writer: stateful write-back of predicted text, page-grouped, deferred flush
//
// Main Functions:
//
// - Parse: reads a PAGE file into a Document
// - NewLoader / Loader.Load: extract line records in ground-truth or prediction mode
// - NewWriter / Writer.Attach / Writer.Flush: write recognized text back to disk
package pagexml
