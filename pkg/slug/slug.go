// Package slug generates URL-safe identifiers for catalog entities.
package slug

import (
	"strings"
	"unicode"
)

// Make converts a display name into a lowercase hyphen-separated slug.
// Non-alphanumeric runs collapse to a single hyphen; leading and trailing
// hyphens are stripped.
func Make(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
