// Package htmlsanitize cleans user-supplied profile and community bios.
//
// Bios may carry a little inline formatting. Everything else (scripts,
// event handlers, iframes, style) is stripped by a bluemonday policy built
// once at init.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var bioPolicy *bluemonday.Policy

func init() {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "em", "b", "i", "u", "s")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	bioPolicy = p
}

// Sanitize returns s with disallowed markup removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(bioPolicy.Sanitize(s))
}

// IsPlainText reports whether s contains no tag-like markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// Bio prepares a bio for storage. Plain text is escaped and newlines become
// <br>; markup goes through the sanitizer.
func Bio(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
	}
	return Sanitize(s)
}
