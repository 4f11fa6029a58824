package catalog

import (
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/models"
)

func segs(start, n int, filename string) []models.Segment {
	out := make([]models.Segment, n)
	for i := range out {
		out[i] = models.Segment{Position: start + i, Filename: filename, Ordinal: i}
	}
	return out
}

func TestCatalog_Append(t *testing.T) {
	c := New(5, 0)
	if err := c.Append(models.Document{Filename: "a.txt"}, segs(0, 3, "a.txt")); err != nil {
		t.Fatal(err)
	}
	if err := c.Append(models.Document{Filename: "a.txt"}, segs(3, 2, "a.txt")); err != nil {
		t.Fatal(err)
	}
	if c.DocumentCount() != 2 || c.SegmentCount() != 5 {
		t.Errorf("counts = %d docs, %d segments", c.DocumentCount(), c.SegmentCount())
	}
	docs := c.Documents()
	if docs[0].SegmentCount != 3 || docs[1].SegmentCount != 2 {
		t.Errorf("segment counts = %d, %d", docs[0].SegmentCount, docs[1].SegmentCount)
	}
	s, ok := c.Segment(4)
	if !ok || s.Position != 4 || s.Ordinal != 1 {
		t.Errorf("Segment(4) = %+v, %v", s, ok)
	}
	if _, ok := c.Segment(5); ok {
		t.Error("Segment(5) should be out of range")
	}
	if _, ok := c.Segment(-1); ok {
		t.Error("Segment(-1) should be out of range")
	}
}

func TestCatalog_AppendRejectsGap(t *testing.T) {
	c := New(5, 0)
	if err := c.Append(models.Document{}, segs(1, 2, "a")); err == nil {
		t.Fatal("expected position mismatch error")
	}
	if c.DocumentCount() != 0 || c.SegmentCount() != 0 {
		t.Error("failed append must not change the catalog")
	}
}

func TestCatalog_DocumentCeiling(t *testing.T) {
	c := New(1, 0)
	if err := c.Append(models.Document{}, segs(0, 1, "a")); err != nil {
		t.Fatal(err)
	}
	err := c.CheckCapacity(1)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
	if err := c.Append(models.Document{}, segs(1, 1, "b")); !errors.Is(err, ErrCapacity) {
		t.Errorf("Append at ceiling: err = %v", err)
	}
	if c.DocumentCount() != 1 || c.SegmentCount() != 1 {
		t.Error("rejected append must not change the catalog")
	}
}

func TestCatalog_SegmentCeiling(t *testing.T) {
	c := New(10, 4)
	if err := c.Append(models.Document{}, segs(0, 3, "a")); err != nil {
		t.Fatal(err)
	}
	if err := c.CheckCapacity(2); !errors.Is(err, ErrSegmentCapacity) {
		t.Errorf("err = %v, want ErrSegmentCapacity", err)
	}
	if err := c.CheckCapacity(1); err != nil {
		t.Errorf("one more segment fits: %v", err)
	}
	if c.MaxSegments() != 4 || c.MaxDocuments() != 10 {
		t.Errorf("ceilings = %d, %d", c.MaxDocuments(), c.MaxSegments())
	}
}

func TestCatalog_DocumentsIsCopy(t *testing.T) {
	c := New(2, 0)
	_ = c.Append(models.Document{Filename: "a"}, segs(0, 1, "a"))
	docs := c.Documents()
	docs[0].Filename = "changed"
	if c.Documents()[0].Filename != "a" {
		t.Error("Documents must return a copy")
	}
}
