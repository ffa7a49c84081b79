package domain

import (
	"fmt"
	"time"
)

// Source identifiers for candidate provenance.
const (
	SourceGitHubIssues      = "github_issues"
	SourceGitHubDiscussions = "github_discussions"
	SourceGitHubReviews     = "github_reviews"
	SourceStackOverflow     = "stackoverflow"
	SourceSynthetic         = "synthetic"
)

// Candidate is one unit fetched from a provider before quality
// filtering: an issue with its solution comments, a discussion with its
// answer, a Q&A pair, or a review comment with its diff context.
//
// A Candidate is immutable once built. Re-fetching the same item
// produces a new Candidate with the same Key; the deduplicator
// reconciles them (first seen wins).
type Candidate struct {
	// Key is the natural key: the source-native unique identifier
	// qualified by source, e.g. "github_issues:moby/moby#42".
	Key string `json:"key"`

	// Source names the provider this candidate came from.
	Source string `json:"source"`

	// Tech is the technology/category tag (kubernetes, docker, ...).
	Tech string `json:"tech"`

	// Origin is the repo full name or tag the candidate was fetched from.
	Origin string `json:"origin"`

	// Title is the issue/question title. May be empty for review comments.
	Title string `json:"title"`

	// Problem is the error description, question body, or code under review.
	Problem string `json:"problem"`

	// Solution is the answer, fix, or review comment text.
	Solution string `json:"solution"`

	// Labels carries issue labels or the discussion category name.
	Labels []string `json:"labels,omitempty"`

	// Category is the discussion category or review bug category, if any.
	Category string `json:"category,omitempty"`

	// Score is a vote/comment count used for ranking, never for
	// correctness filtering.
	Score int `json:"score"`

	// URL is the human-facing link to the original item.
	URL string `json:"url"`

	// CreatedAt is when the item was created at the provider.
	CreatedAt time.Time `json:"created_at"`

	// FetchedAt is when this candidate was extracted.
	FetchedAt time.Time `json:"fetched_at"`
}

// IssueKey builds the natural key for a GitHub issue candidate.
func IssueKey(repo string, number int) string {
	return fmt.Sprintf("%s:%s#%d", SourceGitHubIssues, repo, number)
}

// DiscussionKey builds the natural key for a GitHub discussion candidate.
func DiscussionKey(repo string, number int) string {
	return fmt.Sprintf("%s:%s#%d", SourceGitHubDiscussions, repo, number)
}

// ReviewKey builds the natural key for a PR review comment candidate.
func ReviewKey(repo string, commentID int64) string {
	return fmt.Sprintf("%s:%s#%d", SourceGitHubReviews, repo, commentID)
}

// QuestionKey builds the natural key for a Stack Overflow candidate.
func QuestionKey(questionID int64) string {
	return fmt.Sprintf("%s:%d", SourceStackOverflow, questionID)
}

// Corpus is the whole-file JSON envelope for a persisted per-source
// raw corpus, matching the {scraped_at, stats, examples} layout the
// downstream tooling expects.
type Corpus struct {
	ScrapedAt time.Time    `json:"scraped_at"`
	Source    string       `json:"source"`
	MinDate   string       `json:"min_date,omitempty"`
	Stats     HarvestStats `json:"stats"`
	Examples  []Candidate  `json:"examples"`
}

// HarvestStats aggregates per-run harvest counters. It is passed
// explicitly between pipeline stages rather than kept as ambient state.
type HarvestStats struct {
	Scanned    int            `json:"scanned"`
	Kept       int            `json:"kept"`
	Duplicates int            `json:"duplicates"`
	Filtered   map[string]int `json:"filtered,omitempty"`
	ByTech     map[string]int `json:"by_tech,omitempty"`
	ByOrigin   map[string]int `json:"by_origin,omitempty"`
}

// NewHarvestStats returns zeroed stats with initialised maps.
func NewHarvestStats() HarvestStats {
	return HarvestStats{
		Filtered: make(map[string]int),
		ByTech:   make(map[string]int),
		ByOrigin: make(map[string]int),
	}
}

// CountFiltered records one rejection for the given reason.
func (s *HarvestStats) CountFiltered(reason Reason) {
	if s.Filtered == nil {
		s.Filtered = make(map[string]int)
	}
	s.Filtered[string(reason)]++
}

// CountKept records one accepted candidate.
func (s *HarvestStats) CountKept(c Candidate) {
	s.Kept++
	if s.ByTech == nil {
		s.ByTech = make(map[string]int)
	}
	if s.ByOrigin == nil {
		s.ByOrigin = make(map[string]int)
	}
	s.ByTech[c.Tech]++
	s.ByOrigin[c.Origin]++
}
