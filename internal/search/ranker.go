package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// FormatContext renders hits as blocks attributing each segment to its source
// file, separated by blank lines. The relevance shown is 1 - distance: a
// display heuristic that is not a probability and goes negative for distances
// above 1. No hits give an empty string.
func FormatContext(hits []*models.Hit) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, formatHit(h))
	}
	return strings.Join(blocks, "\n\n")
}

func formatHit(h *models.Hit) string {
	return fmt.Sprintf("From %s (relevance: %.2f):\n%s", h.Filename, h.Relevance, h.Text)
}
