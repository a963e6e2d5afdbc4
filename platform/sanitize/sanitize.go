// Package sanitize cleans text that came from outside the process (model
// output, uploaded tables) before it is stored or shown.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	// codeFenceRegex matches a markdown fenced block, optionally tagged with a language
	codeFenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	// controlRegex matches C0 control characters except tab and newline
	controlRegex   = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML and control characters. Use for short labels such as a
// street name read off a sign.
func Text(s string) string {
	return StripHTML(controlRegex.ReplaceAllString(s, ""))
}

// JSONPayload unwraps a model reply that put its JSON inside a markdown
// code fence. Unfenced input is returned trimmed.
func JSONPayload(s string) string {
	trimmed := strings.TrimSpace(s)
	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}
