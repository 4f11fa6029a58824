package generate

import (
	"context"
	"strings"
)

// Extractive answers with the best-ranked context block itself, without a
// model. It is used when generation.provider is "none".
type Extractive struct{}

// Generate returns the text of the first context block, minus its header.
func (Extractive) Generate(_ context.Context, contextText, _ string) (string, error) {
	block, _, _ := strings.Cut(contextText, "\n\n")
	if header, body, ok := strings.Cut(block, "\n"); ok && strings.HasPrefix(header, "From ") {
		source := strings.TrimPrefix(header, "From ")
		if i := strings.Index(source, " (relevance:"); i >= 0 {
			source = source[:i]
		}
		return body + "\n\n(source: " + source + ")", nil
	}
	return block, nil
}
