// Package catalog records ingested documents and the provenance of every
// indexed segment. Segment metadata is stored positionally: the metadata at
// position p describes the vector at position p of the index.
//
// A Catalog is not safe for concurrent use; search.Engine serializes access.
package catalog

import (
	"errors"
	"fmt"

	"github.com/hyperjump/kotae/internal/models"
)

var (
	// ErrCapacity is returned when the document ceiling has been reached.
	ErrCapacity = errors.New("document capacity reached")
	// ErrSegmentCapacity is returned when a document would push the segment
	// total past the segment ceiling.
	ErrSegmentCapacity = errors.New("segment capacity reached")
)

// Catalog holds document records and positional segment metadata.
type Catalog struct {
	maxDocuments int
	maxSegments  int
	documents    []models.Document
	segments     []models.Segment
}

// New creates an empty catalog. maxSegments <= 0 disables the segment ceiling.
func New(maxDocuments, maxSegments int) *Catalog {
	return &Catalog{maxDocuments: maxDocuments, maxSegments: maxSegments}
}

// CheckCapacity reports whether a document with the given number of segments
// can be added.
func (c *Catalog) CheckCapacity(segments int) error {
	if len(c.documents) >= c.maxDocuments {
		return fmt.Errorf("%w: %d of %d documents", ErrCapacity, len(c.documents), c.maxDocuments)
	}
	if c.maxSegments > 0 && len(c.segments)+segments > c.maxSegments {
		return fmt.Errorf("%w: %d + %d exceeds %d segments", ErrSegmentCapacity, len(c.segments), segments, c.maxSegments)
	}
	return nil
}

// Append records doc and its segments. Segment positions must continue the
// current sequence, which is how the catalog stays paired with the index.
func (c *Catalog) Append(doc models.Document, segments []models.Segment) error {
	if err := c.CheckCapacity(len(segments)); err != nil {
		return err
	}
	next := len(c.segments)
	for i, s := range segments {
		if s.Position != next+i {
			return fmt.Errorf("segment %d has position %d, want %d", i, s.Position, next+i)
		}
	}
	doc.SegmentCount = len(segments)
	c.documents = append(c.documents, doc)
	c.segments = append(c.segments, segments...)
	return nil
}

// Segment returns the metadata at position p.
func (c *Catalog) Segment(p int) (models.Segment, bool) {
	if p < 0 || p >= len(c.segments) {
		return models.Segment{}, false
	}
	return c.segments[p], true
}

// Documents returns a copy of the document records in ingestion order.
func (c *Catalog) Documents() []models.Document {
	out := make([]models.Document, len(c.documents))
	copy(out, c.documents)
	return out
}

// DocumentCount returns the number of documents recorded.
func (c *Catalog) DocumentCount() int { return len(c.documents) }

// SegmentCount returns the number of segments recorded.
func (c *Catalog) SegmentCount() int { return len(c.segments) }

// MaxDocuments returns the document ceiling.
func (c *Catalog) MaxDocuments() int { return c.maxDocuments }

// MaxSegments returns the segment ceiling, 0 when disabled.
func (c *Catalog) MaxSegments() int {
	if c.maxSegments < 0 {
		return 0
	}
	return c.maxSegments
}
