package validate

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html/atom"
)

// strict strips all markup. Policies are safe for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// CleanText removes HTML elements from free text entered by customers or
// staff and trims surrounding whitespace. The result is plain text: angle
// brackets and entities that are not part of an HTML element are kept
// literally, so "Pizza <Hawaii>" and "&lt;b&gt;" come back unchanged.
// Callers must escape it when rendering HTML.
func CleanText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(escapeLiterals(s))))
}

// escapeLiterals entity-encodes every '&' and every '<' that does not open an
// HTML element, end tag or comment. What remains for the sanitiser to remove
// is real markup only, and a single unescape afterwards restores the text.
func escapeLiterals(s string) string {
	if !strings.ContainsAny(s, "&<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '&':
			b.WriteString("&amp;")
		case c == '<' && !opensMarkup(s[i:]):
			b.WriteString("&lt;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// opensMarkup reports whether s, which starts with '<', begins a comment or
// a start or end tag of a known HTML element that is closed by a later '>'.
func opensMarkup(s string) bool {
	if strings.HasPrefix(s, "<!--") {
		return true
	}
	rest := strings.TrimPrefix(s[1:], "/")
	n := 0
	for n < len(rest) && isNameByte(rest[n]) {
		n++
	}
	if n == 0 || atom.Lookup([]byte(strings.ToLower(rest[:n]))) == 0 {
		return false
	}
	if n < len(rest) && !strings.ContainsRune(" \t\r\n/>", rune(rest[n])) {
		return false
	}
	return strings.Contains(rest[n:], ">")
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
