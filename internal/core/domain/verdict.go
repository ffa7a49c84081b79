package domain

// Reason is a diagnostic rejection code attached to a filter verdict.
type Reason string

// Rejection reasons produced by the quality filter. The reason names
// the first predicate that failed; they feed the per-run filter stats.
const (
	ReasonOK                 Reason = "ok"
	ReasonProblemTooShort    Reason = "problem_too_short"
	ReasonProblemTooLong     Reason = "problem_too_long"
	ReasonSolutionTooShort   Reason = "solution_too_short"
	ReasonSolutionTooLong    Reason = "solution_too_long"
	ReasonNoErrorIndicator   Reason = "no_error_indicator"
	ReasonNoActionableFix    Reason = "no_actionable_solution"
	ReasonCategoryDenied     Reason = "category_denied"
	ReasonLikelyNonEnglish   Reason = "likely_non_english"
	ReasonMostlyCodeBlocks   Reason = "mostly_code_blocks"
	ReasonAuthorResponse     Reason = "author_response"
	ReasonLowValue           Reason = "low_value"
)

// Verdict is the output of classifying a candidate. It is attached to a
// candidate transiently and never persisted with it.
type Verdict struct {
	Pass   bool
	Reason Reason
}

// Accept is the passing verdict.
func Accept() Verdict {
	return Verdict{Pass: true, Reason: ReasonOK}
}

// Reject builds a failing verdict with the given reason.
func Reject(reason Reason) Verdict {
	return Verdict{Pass: false, Reason: reason}
}
