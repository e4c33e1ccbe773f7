package database

import "strings"

// LikeEscape is the escape character used by the repositories' LIKE predicates.
const LikeEscape = '!'

// EscapeLike escapes the LIKE wildcards %, _ and [ in s with esc, so the
// result matches s literally. The escape character itself is doubled.
func EscapeLike(s string, esc rune) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '%', '_', '[', esc:
			b.WriteRune(esc)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ContainsPattern returns a LIKE pattern matching any value that contains s
// literally. Use it with "LIKE ? ESCAPE '!'".
func ContainsPattern(s string) string {
	return "%" + EscapeLike(s, LikeEscape) + "%"
}
