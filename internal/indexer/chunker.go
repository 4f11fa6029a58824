package indexer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidChunking is returned when the window size or overlap would keep a
// chunker from advancing.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// paragraphBreak matches a blank line, including one holding only spaces or tabs.
var paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)

// Chunker splits text into paragraph-aware, overlapping word windows.
type Chunker struct {
	maxWords int
	overlap  int
}

// NewChunker creates a chunker with windows of maxWords words, consecutive
// windows sharing overlap words. It requires maxWords > 0 and 0 <= overlap < maxWords.
func NewChunker(maxWords, overlap int) (*Chunker, error) {
	if maxWords <= 0 {
		return nil, fmt.Errorf("%w: max words must be positive, got %d", ErrInvalidChunking, maxWords)
	}
	if overlap < 0 || overlap >= maxWords {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, overlap, maxWords)
	}
	return &Chunker{maxWords: maxWords, overlap: overlap}, nil
}

// Chunk splits text into segments in document order. Each paragraph has its
// surrounding whitespace trimmed. One of at most maxWords words is then kept
// verbatim; a longer one becomes windows of maxWords words joined by single
// spaces, starting every maxWords-overlap words, with the last window ending
// at the paragraph end. Empty text yields no segments.
func (c *Chunker) Chunk(text string) []string {
	text = normalizeNewlines(text)
	var segments []string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		words := strings.Fields(para)
		if len(words) <= c.maxWords {
			segments = append(segments, para)
			continue
		}
		segments = append(segments, c.windows(words)...)
	}
	return segments
}

func (c *Chunker) windows(words []string) []string {
	step := c.maxWords - c.overlap
	out := make([]string, 0, (len(words)-c.overlap+step-1)/step)
	for start := 0; ; start += step {
		end := start + c.maxWords
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			return out
		}
	}
}

// WindowCount returns how many segments a paragraph of n words produces.
func (c *Chunker) WindowCount(n int) int {
	if n == 0 {
		return 0
	}
	if n <= c.maxWords {
		return 1
	}
	step := c.maxWords - c.overlap
	return 1 + (n-c.maxWords+step-1)/step
}
