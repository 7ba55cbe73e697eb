// Package prune shortens text to fit transport limits without splitting
// UTF-8 sequences.
package prune

import (
	"strings"
	"unicode/utf8"
)

// DefaultMarker is appended to text that was cut.
const DefaultMarker = " [truncated]"

// Exceeds reports whether s is longer than maxBytes.
func Exceeds(s string, maxBytes int) bool {
	return maxBytes > 0 && len(s) > maxBytes
}

// Truncate returns s unchanged when it fits in maxBytes. Otherwise it keeps
// the longest valid UTF-8 prefix that leaves room for marker, trims trailing
// whitespace, and appends marker. maxBytes <= 0 disables truncation.
func Truncate(s string, maxBytes int, marker string) string {
	if !Exceeds(s, maxBytes) {
		return s
	}
	if len(marker) >= maxBytes {
		return safeUTF8Prefix(s, maxBytes)
	}
	head := strings.TrimRightFunc(safeUTF8Prefix(s, maxBytes-len(marker)), isSpace)
	return head + marker
}

func safeUTF8Prefix(s string, maxBytes int) string {
	if maxBytes <= 0 || len(s) == 0 {
		return ""
	}
	if maxBytes >= len(s) {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
