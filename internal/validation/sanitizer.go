package validation

import (
	"regexp"
	"strings"
)

// allowedHTMLTags is the allow-list for optional HTML sanitization. Anything
// else is stripped while its text content is preserved.
var allowedHTMLTags = map[string]bool{
	"b": true, "i": true, "em": true, "strong": true,
	"code": true, "pre": true, "p": true, "br": true,
	"ul": true, "ol": true, "li": true,
}

var htmlTagPattern = regexp.MustCompile(`(?s)<\s*(/?)\s*([a-zA-Z][a-zA-Z0-9]*)[^>]*>`)

// sanitizeHTML removes every tag outside the allow-list, keeping text
// content. Allowed tags are rewritten bare so attributes (event handlers,
// javascript: URLs) can never survive.
func sanitizeHTML(input string) string {
	return htmlTagPattern.ReplaceAllStringFunc(input, func(tag string) string {
		groups := htmlTagPattern.FindStringSubmatch(tag)
		name := strings.ToLower(groups[2])
		if !allowedHTMLTags[name] {
			return ""
		}
		if groups[1] == "/" {
			return "</" + name + ">"
		}
		return "<" + name + ">"
	})
}
