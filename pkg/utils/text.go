// Package utils provides shared helpers for logging, vector math, and text.
package utils

// Truncate returns at most maxRunes runes of s. It never splits a UTF-8
// sequence. If maxRunes is 0 or negative, s is returned unchanged.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || len(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}

// Ellipsize truncates s like Truncate and appends "..." when anything was cut.
func Ellipsize(s string, maxRunes int) string {
	t := Truncate(s, maxRunes)
	if len(t) < len(s) {
		return t + "..."
	}
	return t
}
