// Package fingerprint provides a stable content hash for indexed segments.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
)

// Of returns the hex MD5 of text. Equal text always yields the same value.
// It identifies segment content for audit and dedup reporting; uniqueness is
// not enforced anywhere.
func Of(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
