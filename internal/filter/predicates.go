package filter

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// errorIndicators are phrases whose presence in the problem text marks
// it as describing a failure rather than a general question.
var errorIndicators = []string{
	"error",
	"fail",
	"failed",
	"failure",
	"exception",
	"crash",
	"crashed",
	"panic",
	"timeout",
	"timed out",
	"broken",
	"not working",
	"doesn't work",
	"does not work",
	"won't start",
	"cannot",
	"can't",
	"unable to",
	"issue",
	"problem",
	"bug",
	"stuck",
	"hang",
	"refused",
	"denied",
	"unexpected",
	"traceback",
	"stack trace",
	"exit code",
	"errno",
	"segfault",
	"oom",
	"crashloopbackoff",
}

// actionIndicators mark a solution as actionable rather than a
// sympathetic reply.
var actionIndicators = []string{
	"fix",
	"fixed",
	"solve",
	"solved",
	"resolve",
	"resolved",
	"workaround",
	"work around",
	"instead",
	"change",
	"changed",
	"set",
	"update",
	"updated",
	"upgrade",
	"downgrade",
	"add",
	"added",
	"remove",
	"removed",
	"install",
	"reinstall",
	"restart",
	"configure",
	"config",
	"run",
	"use",
	"try",
	"replace",
	"should be",
	"needs to",
	"need to",
	"you can",
	"turn off",
	"enable",
	"disable",
	"check",
}

// authorResponseOpeners match solution text that is the question
// author replying to themselves without real content.
var authorResponsePattern = regexp.MustCompile(`(?i)^\s*(thanks|thank you|\+1|me too|same here|same issue|any update|bump)\b`)

// lowValuePhrases mark a solution as non-reusable even when long
// enough.
var lowValuePhrases = []string{
	"closing as duplicate",
	"closing this issue",
	"closed as stale",
	"duplicate of",
	"see the docs",
	"read the documentation",
	"please open a new issue",
	"works for me",
	"cannot reproduce",
	"can't reproduce",
}

func containsAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ProblemMinLength rejects problems shorter than min bytes after
// trimming whitespace.
func ProblemMinLength(min int) Predicate {
	return Predicate{
		Name:   "problem-min-length",
		Reason: domain.ReasonProblemTooShort,
		Check: func(c domain.Candidate) bool {
			return len(strings.TrimSpace(c.Problem)) >= min
		},
	}
}

// ProblemTooLong rejects problems over max bytes. Split out from the
// bounds check when the caller wants distinct reasons.
func ProblemTooLong(max int) Predicate {
	return Predicate{
		Name:   "problem-max-length",
		Reason: domain.ReasonProblemTooLong,
		Check: func(c domain.Candidate) bool {
			return len(strings.TrimSpace(c.Problem)) <= max
		},
	}
}

// SolutionMinLength rejects solutions shorter than min bytes after
// trimming whitespace.
func SolutionMinLength(min int) Predicate {
	return Predicate{
		Name:   "solution-min-length",
		Reason: domain.ReasonSolutionTooShort,
		Check: func(c domain.Candidate) bool {
			return len(strings.TrimSpace(c.Solution)) >= min
		},
	}
}

// SolutionTooLong rejects solutions over max bytes.
func SolutionTooLong(max int) Predicate {
	return Predicate{
		Name:   "solution-max-length",
		Reason: domain.ReasonSolutionTooLong,
		Check: func(c domain.Candidate) bool {
			return len(strings.TrimSpace(c.Solution)) <= max
		},
	}
}

// HasErrorSignal requires the problem text to contain at least one
// failure-vocabulary phrase. Title text counts as part of the problem.
func HasErrorSignal() Predicate {
	return Predicate{
		Name:   "error-signal",
		Reason: domain.ReasonNoErrorIndicator,
		Check: func(c domain.Candidate) bool {
			return containsAny(c.Title+" "+c.Problem, errorIndicators)
		},
	}
}

// HasActionSignal requires the solution to contain at least one
// action-vocabulary phrase, or a code fence, which counts as a
// concrete fix.
func HasActionSignal() Predicate {
	return Predicate{
		Name:   "action-signal",
		Reason: domain.ReasonNoActionableFix,
		Check: func(c domain.Candidate) bool {
			if strings.Contains(c.Solution, "```") {
				return true
			}
			return containsAny(c.Solution, actionIndicators)
		},
	}
}

// CategoryDeny rejects candidates whose category matches a denied name
// by lowercase substring. An empty category always passes.
func CategoryDeny(denied []string) Predicate {
	return Predicate{
		Name:   "category",
		Reason: domain.ReasonCategoryDenied,
		Check: func(c domain.Candidate) bool {
			if c.Category == "" {
				return true
			}
			cat := strings.ToLower(c.Category)
			for _, d := range denied {
				if strings.Contains(cat, d) {
					return false
				}
			}
			return true
		},
	}
}

// ASCIIRatio rejects candidates whose combined text is below the given
// ASCII fraction. Rune counting keeps multi-byte characters from being
// over-weighted.
func ASCIIRatio(minRatio float64) Predicate {
	return Predicate{
		Name:   "ascii-ratio",
		Reason: domain.ReasonLikelyNonEnglish,
		Check: func(c domain.Candidate) bool {
			text := c.Problem + c.Solution
			if text == "" {
				return true
			}
			total := utf8.RuneCountInString(text)
			ascii := 0
			for _, r := range text {
				if r < 128 {
					ascii++
				}
			}
			return float64(ascii)/float64(total) >= minRatio
		},
	}
}

// CodeFenceDominance rejects solutions that are mostly fenced code.
// Two measures apply: the raw number of fence markers, and the share
// of the solution inside fences once the marker count is two or more.
func CodeFenceDominance(maxFences int) Predicate {
	return Predicate{
		Name:   "code-fence",
		Reason: domain.ReasonMostlyCodeBlocks,
		Check: func(c domain.Candidate) bool {
			fences := strings.Count(c.Solution, "```")
			if fences >= maxFences {
				return false
			}
			if fences < 2 {
				return true
			}
			inside := fencedLength(c.Solution)
			total := len(c.Solution)
			if total == 0 {
				return true
			}
			return float64(inside)/float64(total) < 0.8
		},
	}
}

// fencedLength counts bytes between paired ``` markers.
func fencedLength(s string) int {
	inside := 0
	open := false
	for {
		i := strings.Index(s, "```")
		if i < 0 {
			break
		}
		if open {
			inside += i
		}
		open = !open
		s = s[i+3:]
	}
	return inside
}

// NotAuthorResponse rejects solutions that open with a filler phrase
// the asker typically posts themselves.
func NotAuthorResponse() Predicate {
	return Predicate{
		Name:   "author-response",
		Reason: domain.ReasonAuthorResponse,
		Check: func(c domain.Candidate) bool {
			return !authorResponsePattern.MatchString(c.Solution)
		},
	}
}

// NotLowValue rejects solutions containing known non-answer phrases.
func NotLowValue() Predicate {
	return Predicate{
		Name:   "low-value",
		Reason: domain.ReasonLowValue,
		Check: func(c domain.Candidate) bool {
			return !containsAny(c.Solution, lowValuePhrases)
		},
	}
}
