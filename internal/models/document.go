// Package models defines core data structures for documents, segments, queries, and answers.
package models

import "time"

// Document is one ingested file as recorded in the catalog. Filenames are not
// unique: ingesting the same name twice yields two records. CharCount is the
// rune length of the normalized text that was chunked, not of the raw file.
type Document struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	SegmentCount int       `json:"segment_count"`
	CharCount    int       `json:"char_count"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// Segment is a bounded slice of a document's text indexed as one retrieval unit.
// Position is its slot in the vector index and never changes once committed.
type Segment struct {
	Position    int    `json:"position"`
	DocumentID  string `json:"document_id"`
	Filename    string `json:"filename"`
	Ordinal     int    `json:"ordinal"`
	Text        string `json:"text"`
	Fingerprint string `json:"fingerprint"`
}
