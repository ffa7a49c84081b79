package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

func TestDeduperFirstSeenWins(t *testing.T) {
	d := NewDeduper()

	first := domain.Candidate{Key: "k1", Title: "original"}
	again := domain.Candidate{Key: "k1", Title: "refetched with different content"}

	assert.True(t, d.Admit(first))
	assert.False(t, d.Admit(again))
	assert.False(t, d.Admit(again))
	assert.True(t, d.Admit(domain.Candidate{Key: "k2"}))

	assert.Equal(t, 2, d.Duplicates())
	assert.Equal(t, 2, d.Len())
}

func TestDedupeExamples(t *testing.T) {
	a := domain.NewTrainingExample("s", "u", "first", domain.ExampleMeta{ID: "x"})
	b := domain.NewTrainingExample("s", "u", "second", domain.ExampleMeta{ID: "x"})
	c := domain.NewTrainingExample("s", "u", "other", domain.ExampleMeta{ID: "y"})
	noID := domain.NewTrainingExample("s", "u", "anon", domain.ExampleMeta{})

	out := dedupeExamples([]domain.TrainingExample{a, b, c, noID, noID})

	assert.Len(t, out, 4)
	assert.Equal(t, "first", out[0].Assistant())
	assert.Equal(t, "other", out[1].Assistant())
}
