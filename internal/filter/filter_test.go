package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
)

func goodCandidate() domain.Candidate {
	return domain.Candidate{
		Title:    "Service fails to start after upgrade",
		Problem:  strings.Repeat("The deployment fails with a timeout error when rolling out. ", 3),
		Solution: "Fixed by increasing the readiness probe initialDelaySeconds to 30 and restarting the rollout.",
		Category: "Q&A",
	}
}

func TestClassifyAcceptsGoodCandidate(t *testing.T) {
	f := NewDefault(Config{})
	v := f.Classify(goodCandidate())
	require.True(t, v.Pass)
	assert.Equal(t, domain.ReasonOK, v.Reason)
}

func TestClassifyIsDeterministic(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	first := f.Classify(c)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, f.Classify(c))
	}
}

func TestProblemLengthBounds(t *testing.T) {
	f := NewDefault(Config{})

	t.Run("too short", func(t *testing.T) {
		c := goodCandidate()
		c.Problem = "it broke"
		v := f.Classify(c)
		require.False(t, v.Pass)
		assert.Equal(t, domain.ReasonProblemTooShort, v.Reason)
	})

	t.Run("too long", func(t *testing.T) {
		c := goodCandidate()
		c.Problem = strings.Repeat("error ", 1000)
		v := f.Classify(c)
		require.False(t, v.Pass)
		assert.Equal(t, domain.ReasonProblemTooLong, v.Reason)
	})

	t.Run("exactly at lower bound", func(t *testing.T) {
		c := goodCandidate()
		c.Problem = "error: " + strings.Repeat("x", DefaultMinProblemLen-7)
		require.Len(t, c.Problem, DefaultMinProblemLen)
		assert.True(t, f.Classify(c).Pass)
	})
}

func TestSolutionLengthBounds(t *testing.T) {
	f := NewDefault(Config{})

	t.Run("too short", func(t *testing.T) {
		c := goodCandidate()
		c.Solution = "restart it"
		v := f.Classify(c)
		require.False(t, v.Pass)
		assert.Equal(t, domain.ReasonSolutionTooShort, v.Reason)
	})

	t.Run("too long", func(t *testing.T) {
		c := goodCandidate()
		c.Solution = "fix: " + strings.Repeat("x", DefaultMaxSolutionLen)
		v := f.Classify(c)
		require.False(t, v.Pass)
		assert.Equal(t, domain.ReasonSolutionTooLong, v.Reason)
	})
}

func TestErrorSignalRequired(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Title = "How should I structure my project"
	c.Problem = "I would like advice on how to lay out my repository for a medium sized team working on several services."
	v := f.Classify(c)
	require.False(t, v.Pass)
	assert.Equal(t, domain.ReasonNoErrorIndicator, v.Reason)
}

func TestErrorSignalInTitleCounts(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Title = "CrashLoopBackOff on startup"
	c.Problem = "The pod keeps restarting right after the container launches and I cannot tell what is going on from the events list here."
	assert.True(t, f.Classify(c).Pass)
}

func TestActionSignalRequired(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Solution = "I am having exactly this behaviour as well on my cluster, it has been going on for weeks now unfortunately."
	v := f.Classify(c)
	require.False(t, v.Pass)
	assert.Equal(t, domain.ReasonNoActionableFix, v.Reason)
}

func TestCodeFenceCountsAsAction(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Solution = "The probe was the culprit, this manifest snippet worked for me:\n```yaml\ninitialDelaySeconds: 30\n```\nafter applying it the pod stays up."
	assert.True(t, f.Classify(c).Pass)
}

func TestCategoryDeny(t *testing.T) {
	f := NewDefault(Config{})

	for _, cat := range []string{"Announcements", "Show and tell", "Ideas", "RFC discussion"} {
		c := goodCandidate()
		c.Category = cat
		v := f.Classify(c)
		require.False(t, v.Pass, "category %q should be denied", cat)
		assert.Equal(t, domain.ReasonCategoryDenied, v.Reason)
	}

	t.Run("empty category passes", func(t *testing.T) {
		c := goodCandidate()
		c.Category = ""
		assert.True(t, f.Classify(c).Pass)
	})

	t.Run("help category passes", func(t *testing.T) {
		c := goodCandidate()
		c.Category = "Help"
		assert.True(t, f.Classify(c).Pass)
	})
}

func TestASCIIRatio(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Problem = strings.Repeat("サービスが起動しないエラーが発生します。", 10)
	v := f.Classify(c)
	require.False(t, v.Pass)
	assert.Equal(t, domain.ReasonLikelyNonEnglish, v.Reason)
}

func TestCodeFenceDominance(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Solution = "fix:\n```\n" + strings.Repeat("code\n", 30) + "```\n```\n" + strings.Repeat("more\n", 30) + "```"
	v := f.Classify(c)
	require.False(t, v.Pass)
	assert.Equal(t, domain.ReasonMostlyCodeBlocks, v.Reason)
}

func TestAuthorResponseRejected(t *testing.T) {
	f := NewDefault(Config{})
	for _, opener := range []string{"Thanks, closing this one out now.", "+1 seeing the same on 1.28", "Same here after the last update to the chart values file."} {
		c := goodCandidate()
		c.Solution = opener + " " + strings.Repeat("padding to clear the length check and fix nothing at all. ", 2)
		v := f.Classify(c)
		require.False(t, v.Pass, "opener %q", opener)
		assert.Equal(t, domain.ReasonAuthorResponse, v.Reason)
	}
}

func TestLowValueRejected(t *testing.T) {
	f := NewDefault(Config{})
	c := goodCandidate()
	c.Solution = "Closing as duplicate of #1024, the fix there should apply to your setup as well without changes."
	v := f.Classify(c)
	require.False(t, v.Pass)
	assert.Equal(t, domain.ReasonLowValue, v.Reason)
}

func TestFirstFailureWins(t *testing.T) {
	// A candidate failing several predicates reports the earliest one
	// in the chain.
	f := NewDefault(Config{})
	c := domain.Candidate{Problem: "short", Solution: "short", Category: "Announcements"}
	v := f.Classify(c)
	require.False(t, v.Pass)
	assert.Equal(t, domain.ReasonProblemTooShort, v.Reason)
}

func TestCustomChainOrder(t *testing.T) {
	f := New(
		CategoryDeny(DefaultDenyCategories),
		ProblemMinLength(DefaultMinProblemLen),
	)
	c := domain.Candidate{Problem: "short", Category: "Announcements"}
	assert.Equal(t, domain.ReasonCategoryDenied, f.Classify(c).Reason)
}

func TestConfigOverrides(t *testing.T) {
	f := NewDefault(Config{MinProblemLen: 10, MinSolutionLen: 10})
	c := goodCandidate()
	c.Problem = "error: it fails on boot"
	c.Solution = "fix the config"
	assert.True(t, f.Classify(c).Pass)
}
