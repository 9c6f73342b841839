package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes code text for diffing: CRLF and lone CR become
// LF, then leading/trailing whitespace is trimmed.
func Normalize(code string) string {
	s := strings.ReplaceAll(code, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// ContentHash returns a hex-encoded sha256 of the normalized content,
// suitable for the File.ContentHash field and for change detection.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(Normalize(content)))
	return hex.EncodeToString(sum[:])
}
