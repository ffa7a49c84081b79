package stackexchange

import (
	"html"
	"regexp"
	"strings"
)

var (
	prePattern     = regexp.MustCompile(`(?s)<pre[^>]*><code[^>]*>(.*?)</code></pre>`)
	preOnlyPattern = regexp.MustCompile(`(?s)<pre[^>]*>(.*?)</pre>`)
	codePattern    = regexp.MustCompile(`(?s)<code[^>]*>(.*?)</code>`)
	brPattern      = regexp.MustCompile(`<br\s*/?>`)
	pClosePattern  = regexp.MustCompile(`</(p|div|li|blockquote|h[1-6])>`)
	tagPattern     = regexp.MustCompile(`(?s)<[^>]+>`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// cleanHTML converts the API's rendered HTML bodies to plain text with
// markdown code fences. Block-level code keeps fences; inline code
// keeps backticks; remaining tags are stripped and entities unescaped.
func cleanHTML(s string) string {
	s = prePattern.ReplaceAllString(s, "\n```\n$1\n```\n")
	s = preOnlyPattern.ReplaceAllString(s, "\n```\n$1\n```\n")
	s = codePattern.ReplaceAllString(s, "`$1`")
	s = brPattern.ReplaceAllString(s, "\n")
	s = pClosePattern.ReplaceAllString(s, "\n\n")
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
