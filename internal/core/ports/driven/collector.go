package driven

import (
	"context"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// SourceUnit is the smallest independent unit of collection work: one
// repository or one tag for one technology. Failures are isolated per
// unit; an error in one unit never aborts its siblings.
type SourceUnit struct {
	// Tech is the technology tag applied to every candidate.
	Tech string

	// Origin is the repo full name ("owner/repo") or the SE tag.
	Origin string
}

// Collector fetches candidate records from one provider. Each provider
// (GitHub REST, GitHub GraphQL discussions, Stack Exchange) implements
// this interface.
//
// Collect produces a lazy, finite, non-restartable sequence: at most
// cap candidates on the first channel, then both channels close. The
// implementation handles pagination and rate limiting internally and
// applies the configured date floor per record, not per page. A
// provider error is sent on the error channel and terminates the
// sequence for this unit only.
type Collector interface {
	// Source returns the provenance identifier for candidates this
	// collector produces (one of the domain.Source* constants).
	Source() string

	// Collect streams candidates for one source unit.
	Collect(ctx context.Context, unit SourceUnit, cap int) (<-chan domain.Candidate, <-chan error)
}
