package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Review material has its own length bounds: the code under review is
// shorter than an issue body, and a useful review remark is shorter
// than a full resolution thread.
const (
	minReviewCodeLen    = 20
	maxReviewCodeLen    = 3000
	minReviewCommentLen = 30
	maxReviewCommentLen = 1500
)

// ReviewsCollector harvests review threads from merged pull requests.
// The reviewed code (diff hunk) becomes the problem and the reviewer's
// remark becomes the solution.
type ReviewsCollector struct {
	client *Client
	cfg    Config
}

// NewReviewsCollector creates a reviews collector over an existing client.
func NewReviewsCollector(client *Client, cfg Config) *ReviewsCollector {
	return &ReviewsCollector{client: client, cfg: cfg}
}

// Source implements driven.Collector.
func (rc *ReviewsCollector) Source() string {
	return domain.SourceGitHubReviews
}

// Collect implements driven.Collector. unit.Origin is "owner/repo".
func (rc *ReviewsCollector) Collect(
	ctx context.Context, unit driven.SourceUnit, cap int,
) (<-chan domain.Candidate, <-chan error) {
	out := make(chan domain.Candidate)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		owner, repo, err := splitRepo(unit.Origin)
		if err != nil {
			errs <- err
			return
		}

		logger.Info("github reviews: scanning %s", unit.Origin)

		sent := 0
		seen := 0
		err = rc.client.EachClosedPull(ctx, owner, repo, func(pr *gh.PullRequest) error {
			if cap > 0 && sent >= cap {
				return errStop
			}
			if seen >= rc.cfg.maxPulls() {
				return errStop
			}
			seen++

			if pr.GetMergedAt().IsZero() {
				return nil
			}
			if pr.GetCreatedAt().Time.Before(rc.cfg.MinDate) {
				return nil
			}

			comments, err := rc.client.ListReviewComments(ctx, owner, repo, pr.GetNumber())
			if err != nil {
				if IsPermanent(err) {
					logger.Warn("github reviews: skipping %s#%d: %v", unit.Origin, pr.GetNumber(), err)
					return nil
				}
				return err
			}

			for _, cm := range comments {
				if cap > 0 && sent >= cap {
					return errStop
				}
				c, ok := rc.buildCandidate(unit, pr, cm)
				if !ok {
					continue
				}
				select {
				case out <- c:
					sent++
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			errs <- err
		}
	}()

	return out, errs
}

// buildCandidate assembles a candidate from one review comment. ok is
// false when the hunk or the remark is outside the review bounds.
func (rc *ReviewsCollector) buildCandidate(
	unit driven.SourceUnit, pr *gh.PullRequest, cm *gh.PullRequestComment,
) (domain.Candidate, bool) {
	code := cleanDiffHunk(cm.GetDiffHunk())
	if len(code) < minReviewCodeLen || len(code) > maxReviewCodeLen {
		return domain.Candidate{}, false
	}

	remark := cleanBody(cm.GetBody())
	if len(remark) < minReviewCommentLen || len(remark) > maxReviewCommentLen {
		return domain.Candidate{}, false
	}

	problem := "```\n" + code + "\n```"
	if path := cm.GetPath(); path != "" {
		problem = "In " + path + ":\n\n" + problem
	}

	return domain.Candidate{
		Key:       domain.ReviewKey(unit.Origin, cm.GetID()),
		Source:    domain.SourceGitHubReviews,
		Tech:      unit.Tech,
		Origin:    unit.Origin,
		Title:     foldTitle(pr.GetTitle()),
		Problem:   problem,
		Solution:  remark,
		URL:       cm.GetHTMLURL(),
		CreatedAt: cm.GetCreatedAt().Time,
		FetchedAt: time.Now().UTC(),
	}, true
}
