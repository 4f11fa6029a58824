package indexer

import (
	"strings"
	"unicode"
)

// Preprocess cleans extracted text before chunking: line endings become \n,
// control characters other than tab and newline are dropped, runs of spaces
// inside a line collapse to one, and trailing spaces on each line are removed.
// Blank lines are kept so paragraph boundaries survive.
func Preprocess(text string) string {
	text = normalizeNewlines(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseSpaces(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func collapseSpaces(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	wasSpace := false
	for _, r := range line {
		if unicode.IsControl(r) && r != '\t' {
			continue
		}
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		wasSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}
