package parser

import (
	"regexp"
	"strings"
)

// Inline rewrite rules. All runs are matched non-greedily so that several
// runs on one line are wrapped independently.
var (
	emphasisPattern = regexp.MustCompile(`\*(.+?)\*`)
	mindsPattern    = regexp.MustCompile(`\((.+?)\)`)
)

// FormatInline rewrites the inline markup of serif, event, notice and zone
// header payloads. Order matters: line breaks first, then emphasis, then
// inner-thought asides. Delimiters stay visible inside the generated tags.
func FormatInline(text string) string {
	text = strings.ReplaceAll(text, "/", "<br/>")
	text = emphasisPattern.ReplaceAllString(text, `<em>*${1}*</em>`)
	text = mindsPattern.ReplaceAllString(text, `<span class="minds">(${1})</span>`)
	return text
}
