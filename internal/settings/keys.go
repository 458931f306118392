package settings

import (
	"strings"
	"unicode"
)

// PascalKey converts an in-memory key to its on-disk form:
// "invert_strength" becomes "InvertStrength".
func PascalKey(snake string) string {
	var b strings.Builder
	upper := true
	for _, r := range snake {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SnakeKey converts an on-disk key back to its in-memory form:
// "InvertStrength" becomes "invert_strength". Keys already in snake case
// are returned unchanged, so hand-edited files may use either style.
func SnakeKey(pascal string) string {
	var b strings.Builder
	prev := '_'
	for i, r := range pascal {
		if unicode.IsUpper(r) {
			if i > 0 && prev != '_' {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
