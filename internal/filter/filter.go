// Package filter classifies candidate records as keep or reject. The
// filter is an ordered chain of named predicates; the first failing
// predicate supplies the rejection reason, and acceptance requires all
// predicates to pass. Classification is pure and deterministic.
package filter

import (
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// Predicate is one independent quality check. Check returns true when
// the candidate passes.
type Predicate struct {
	// Name identifies the predicate for diagnostics.
	Name string

	// Reason is attached to the verdict when this predicate fails.
	Reason domain.Reason

	// Check evaluates the candidate. Must be side-effect free.
	Check func(c domain.Candidate) bool
}

// Filter is an ordered predicate chain.
type Filter struct {
	predicates []Predicate
}

// New creates a filter running the given predicates in order.
func New(predicates ...Predicate) *Filter {
	return &Filter{predicates: predicates}
}

// Classify evaluates the chain, short-circuiting on the first failure.
func (f *Filter) Classify(c domain.Candidate) domain.Verdict {
	for _, p := range f.predicates {
		if !p.Check(c) {
			return domain.Reject(p.Reason)
		}
	}
	return domain.Accept()
}

// Predicates returns the chain for inspection.
func (f *Filter) Predicates() []Predicate {
	return f.predicates
}

// Config holds the thresholds for the default predicate chain. Zero
// values fall back to the defaults below.
type Config struct {
	MinProblemLen  int
	MaxProblemLen  int
	MinSolutionLen int
	MaxSolutionLen int

	// MinASCIIRatio is the fraction of ASCII characters below which
	// text is treated as non-English.
	MinASCIIRatio float64

	// MaxFenceCount is the number of ``` markers at or above which a
	// solution counts as a code dump rather than an explanation.
	MaxFenceCount int

	// DenyCategories is matched as a substring of the lowercased
	// category name.
	DenyCategories []string
}

// Default thresholds, matching the curation rules the corpus was
// originally built with.
const (
	DefaultMinProblemLen  = 50
	DefaultMaxProblemLen  = 5000
	DefaultMinSolutionLen = 50
	DefaultMaxSolutionLen = 3000
	DefaultMinASCIIRatio  = 0.8
	DefaultMaxFenceCount  = 4
)

// DefaultDenyCategories lists category names that indicate the item is
// not a troubleshooting discussion.
var DefaultDenyCategories = []string{"announcement", "show", "ideas", "rfc"}

func (c Config) withDefaults() Config {
	if c.MinProblemLen == 0 {
		c.MinProblemLen = DefaultMinProblemLen
	}
	if c.MaxProblemLen == 0 {
		c.MaxProblemLen = DefaultMaxProblemLen
	}
	if c.MinSolutionLen == 0 {
		c.MinSolutionLen = DefaultMinSolutionLen
	}
	if c.MaxSolutionLen == 0 {
		c.MaxSolutionLen = DefaultMaxSolutionLen
	}
	if c.MinASCIIRatio == 0 {
		c.MinASCIIRatio = DefaultMinASCIIRatio
	}
	if c.MaxFenceCount == 0 {
		c.MaxFenceCount = DefaultMaxFenceCount
	}
	if c.DenyCategories == nil {
		c.DenyCategories = DefaultDenyCategories
	}
	return c
}

// NewDefault builds the standard chain: length bounds, error and
// action vocabulary signals, category deny list, script heuristic,
// code-fence dominance, and author-response rejection. Order matters
// only for which reason is reported; logically all must pass.
func NewDefault(cfg Config) *Filter {
	cfg = cfg.withDefaults()

	return New(
		ProblemMinLength(cfg.MinProblemLen),
		ProblemTooLong(cfg.MaxProblemLen),
		SolutionMinLength(cfg.MinSolutionLen),
		SolutionTooLong(cfg.MaxSolutionLen),
		CategoryDeny(cfg.DenyCategories),
		HasErrorSignal(),
		HasActionSignal(),
		ASCIIRatio(cfg.MinASCIIRatio),
		CodeFenceDominance(cfg.MaxFenceCount),
		NotAuthorResponse(),
		NotLowValue(),
	)
}
