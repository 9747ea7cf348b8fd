package improve

import "strings"

// BoilerplatePrefixes are lead-ins models like to put in front of the rewrite.
// Order matters: longer phrases come before the shorter ones they contain.
var BoilerplatePrefixes = []string{
	"here's the improved text:",
	"here’s the improved text:",
	"here is the improved text:",
	"here's the refactored text:",
	"here’s the refactored text:",
	"here is the refactored text:",
	"here's the revised text:",
	"here’s the revised text:",
	"here is the revised text:",
	"here's an improved version:",
	"here’s an improved version:",
	"here is an improved version:",
	"improved version:",
	"improved text:",
	"refactored text:",
	"revised text:",
	"rewritten text:",
}

// Sanitize strips wrapping quotes and boilerplate lead-ins from model output.
//
// A single pass trims whitespace, removes one matching pair of straight
// double or single quotes, removes at most one prefix and trims again.
// Passes repeat until the text stops changing, so Sanitize(Sanitize(s))
// always equals Sanitize(s).
func Sanitize(text string) string {
	for {
		next := sanitizePass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func sanitizePass(text string) string {
	text = strings.TrimSpace(text)
	text = stripQuotes(text)
	text = stripPrefix(text)
	return strings.TrimSpace(text)
}

func stripQuotes(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if first == last && (first == '"' || first == '\'') {
		return text[1 : len(text)-1]
	}
	return text
}

func stripPrefix(text string) string {
	for _, prefix := range BoilerplatePrefixes {
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			return text[len(prefix):]
		}
	}
	return text
}
