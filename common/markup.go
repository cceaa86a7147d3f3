package common

import (
	"regexp"
	"strings"
)

var (
	linkPattern    = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	headerPattern  = regexp.MustCompile(`^#{1,6}\s+(.*)$`)
	htmlTagPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*[^>]*>`)
)

// SanitizeMarkup reduces model output to the markup subset the transport
// renders: bold, italic, code, strikethrough and underline. Anything outside
// that subset would be rendered literally or rejected, so headers become bold
// lines, links are flattened to "text (url)", and HTML tags other than
// underline are stripped.
func SanitizeMarkup(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if m := headerPattern.FindStringSubmatch(line); m != nil {
			lines[i] = "**" + strings.TrimSpace(m[1]) + "**"
		}
	}
	out := strings.Join(lines, "\n")

	out = linkPattern.ReplaceAllString(out, "$1 ($2)")

	out = htmlTagPattern.ReplaceAllStringFunc(out, func(tag string) string {
		lower := strings.ToLower(tag)
		if lower == "<u>" || lower == "</u>" {
			return tag
		}
		return ""
	})

	return out
}
