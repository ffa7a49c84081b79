package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/plan"
)

func TestSelectSources(t *testing.T) {
	t.Run("empty selects everything", func(t *testing.T) {
		want, err := selectSources(nil)
		require.NoError(t, err)
		for _, s := range knownSources() {
			assert.True(t, want(s))
		}
	})

	t.Run("explicit selection", func(t *testing.T) {
		want, err := selectSources([]string{domain.SourceGitHubIssues, domain.SourceStackOverflow})
		require.NoError(t, err)
		assert.True(t, want(domain.SourceGitHubIssues))
		assert.True(t, want(domain.SourceStackOverflow))
		assert.False(t, want(domain.SourceGitHubReviews))
		assert.False(t, want(domain.SourceGitHubDiscussions))
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := selectSources([]string{"usenet"})
		assert.ErrorIs(t, err, domain.ErrUnsupportedSource)
	})
}

func TestPlanUnits(t *testing.T) {
	p := &plan.Plan{
		Technologies: []plan.Technology{
			{Name: "kubernetes", IssueRepos: []string{"kubernetes/kubernetes", "kubernetes/ingress-nginx"}, Tags: []string{"kubernetes"}},
			{Name: "docker", IssueRepos: []string{"moby/moby"}, Tags: []string{"docker", "docker-compose"}},
		},
	}

	issues := planUnits(p, func(t plan.Technology) []string { return t.IssueRepos })
	require.Len(t, issues, 3)
	assert.Equal(t, "kubernetes", issues[0].Tech)
	assert.Equal(t, "kubernetes/kubernetes", issues[0].Origin)
	assert.Equal(t, "docker", issues[2].Tech)
	assert.Equal(t, "moby/moby", issues[2].Origin)

	tags := planUnits(p, func(t plan.Technology) []string { return t.Tags })
	require.Len(t, tags, 3)
	assert.Equal(t, "docker-compose", tags[2].Origin)

	reviews := planUnits(p, func(t plan.Technology) []string { return t.ReviewRepos })
	assert.Empty(t, reviews)
}

func TestReviewFilterSkipsLengthBounds(t *testing.T) {
	f := reviewFilter()

	// Review problems are code, not prose; the chain must not demand
	// error vocabulary or a minimum length.
	v := f.Classify(domain.Candidate{
		Source:   domain.SourceGitHubReviews,
		Problem:  "In cmd/main.go:\n\n```\ncfg := load()\n```",
		Solution: "This leaks the file handle when load fails, close it in a defer.",
	})
	assert.True(t, v.Pass)

	v = f.Classify(domain.Candidate{
		Source:   domain.SourceGitHubReviews,
		Problem:  "In cmd/main.go:\n\n```\ncfg := load()\n```",
		Solution: "thanks, +1",
	})
	assert.False(t, v.Pass)
}
