package services

import (
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

// Deduper tracks candidate natural keys across one run. First seen
// wins; later candidates with the same key are dropped regardless of
// content.
type Deduper struct {
	seen map[string]bool
	dups int
}

// NewDeduper creates an empty deduplicator.
func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]bool)}
}

// Admit reports whether the candidate's key is new. The first call for
// a key returns true; every later call returns false and counts a
// duplicate.
func (d *Deduper) Admit(c domain.Candidate) bool {
	if d.seen[c.Key] {
		d.dups++
		return false
	}
	d.seen[c.Key] = true
	return true
}

// Duplicates returns how many candidates were dropped.
func (d *Deduper) Duplicates() int {
	return d.dups
}

// Len returns how many distinct keys have been admitted.
func (d *Deduper) Len() int {
	return len(d.seen)
}

// dedupeExamples drops training examples with repeated ids, keeping
// the first occurrence. Examples without an id are kept as-is.
func dedupeExamples(examples []domain.TrainingExample) []domain.TrainingExample {
	seen := make(map[string]bool, len(examples))
	out := make([]domain.TrainingExample, 0, len(examples))
	for _, ex := range examples {
		id := ex.Key()
		if id != "" {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		out = append(out, ex)
	}
	return out
}
