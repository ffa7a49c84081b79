package github

import (
	"regexp"
	"sort"
	"strings"
)

// solutionPhrases mark an issue comment as describing the actual fix.
var solutionPhrases = []string{
	"fixed by",
	"fixed in",
	"fixed it",
	"fixed this",
	"solved by",
	"solved it",
	"solved this",
	"the fix",
	"the solution",
	"the problem was",
	"the issue was",
	"resolved by",
	"resolved this",
	"root cause",
	"turned out",
	"workaround",
	"works now",
	"working now",
	"this worked",
	"that worked",
	"worked for me",
	"in case anyone",
	"for anyone else",
}

var (
	mentionPattern     = regexp.MustCompile(`@[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?`)
	htmlCommentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	whitespaceRuns     = regexp.MustCompile(`[ \t]+`)
	blankLineRuns      = regexp.MustCompile(`\n{3,}`)
)

// cleanBody strips issue-template noise from a markdown body: HTML
// comments, @-mentions, and whitespace runs.
func cleanBody(s string) string {
	s = htmlCommentPattern.ReplaceAllString(s, "")
	s = mentionPattern.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// errorLinePattern marks lines worth keeping when a problem body has
// to be cut down to size.
var errorLinePattern = regexp.MustCompile(`(?i)\b(error|exception|panic|fatal|fail(ed|ure)?|traceback|stack trace|cannot|unable to)\b`)

// maxProblemChars bounds problem bodies before filtering; anything
// longer would be rejected outright, so salvage what matters first.
const maxProblemChars = 5000

// clampProblem bounds an oversized problem body. Error-bearing lines
// are kept first; when none exist the text is truncated at a line
// boundary.
func clampProblem(s string) string {
	if len(s) <= maxProblemChars {
		return s
	}

	var picked []string
	size := 0
	for _, line := range strings.Split(s, "\n") {
		if !errorLinePattern.MatchString(line) {
			continue
		}
		if size+len(line)+1 > maxProblemChars {
			break
		}
		picked = append(picked, line)
		size += len(line) + 1
	}
	if len(picked) > 0 {
		return strings.TrimSpace(strings.Join(picked, "\n"))
	}

	cut := s[:maxProblemChars]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// foldTitle collapses all whitespace in a title to single spaces.
func foldTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// mineSolution picks the comments most likely to describe the fix.
// Comments containing a solution phrase win; otherwise the longest
// comments stand in. At most three are kept, joined by a separator so
// the boundary survives later processing.
func mineSolution(comments []string) string {
	cleaned := make([]string, 0, len(comments))
	for _, c := range comments {
		c = cleanBody(c)
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}

	var matched []string
	for _, c := range cleaned {
		lower := strings.ToLower(c)
		for _, p := range solutionPhrases {
			if strings.Contains(lower, p) {
				matched = append(matched, c)
				break
			}
		}
	}

	picked := matched
	if len(picked) == 0 {
		// Fall back to the longest comments, preserving thread order.
		type indexed struct {
			pos  int
			text string
		}
		byLen := make([]indexed, len(cleaned))
		for i, c := range cleaned {
			byLen[i] = indexed{pos: i, text: c}
		}
		sort.SliceStable(byLen, func(i, j int) bool {
			return len(byLen[i].text) > len(byLen[j].text)
		})
		if len(byLen) > 3 {
			byLen = byLen[:3]
		}
		sort.Slice(byLen, func(i, j int) bool { return byLen[i].pos < byLen[j].pos })
		picked = make([]string, len(byLen))
		for i, e := range byLen {
			picked[i] = e.text
		}
	}
	if len(picked) > 3 {
		picked = picked[:3]
	}

	return strings.Join(picked, "\n\n---\n\n")
}

// cleanDiffHunk turns a unified diff hunk into plain code: the @@
// header goes, removal lines go, and the +/space prefixes are
// stripped from what remains.
func cleanDiffHunk(hunk string) string {
	var out []string
	for _, line := range strings.Split(hunk, "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			continue
		case strings.HasPrefix(line, "-"):
			continue
		case strings.HasPrefix(line, "+"):
			out = append(out, line[1:])
		case strings.HasPrefix(line, " "):
			out = append(out, line[1:])
		default:
			out = append(out, line)
		}
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
