package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// IssuesCollector harvests closed issues with their resolution
// comments. The issue body becomes the problem and the mined comments
// become the solution.
type IssuesCollector struct {
	client *Client
	cfg    Config
}

// NewIssuesCollector creates an issues collector over an existing client.
func NewIssuesCollector(client *Client, cfg Config) *IssuesCollector {
	return &IssuesCollector{client: client, cfg: cfg}
}

// Source implements driven.Collector.
func (ic *IssuesCollector) Source() string {
	return domain.SourceGitHubIssues
}

// Collect implements driven.Collector. unit.Origin is "owner/repo".
func (ic *IssuesCollector) Collect(
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

		logger.Info("github issues: scanning %s", unit.Origin)

		sent := 0
		err = ic.client.EachClosedIssue(ctx, owner, repo, ic.cfg.MinDate, func(issue *gh.Issue) error {
			if cap > 0 && sent >= cap {
				return errStop
			}
			// The issues listing includes pull requests.
			if issue.IsPullRequest() {
				return nil
			}
			if issue.GetCreatedAt().Time.Before(ic.cfg.MinDate) {
				return nil
			}

			c, ok, err := ic.buildCandidate(ctx, owner, repo, unit, issue)
			if err != nil {
				if IsPermanent(err) {
					logger.Warn("github issues: skipping %s#%d: %v", unit.Origin, issue.GetNumber(), err)
					return nil
				}
				return err
			}
			if !ok {
				return nil
			}

			select {
			case out <- c:
				sent++
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return out, errs
}

// buildCandidate fetches the comment thread and assembles a candidate.
// ok is false when the issue has no usable solution material.
func (ic *IssuesCollector) buildCandidate(
	ctx context.Context, owner, repo string, unit driven.SourceUnit, issue *gh.Issue,
) (domain.Candidate, bool, error) {
	if issue.GetComments() == 0 {
		return domain.Candidate{}, false, nil
	}

	comments, err := ic.client.ListIssueComments(ctx, owner, repo, issue.GetNumber())
	if err != nil {
		return domain.Candidate{}, false, err
	}

	bodies := make([]string, 0, len(comments))
	for _, cm := range comments {
		bodies = append(bodies, cm.GetBody())
	}
	solution := mineSolution(bodies)
	if solution == "" {
		return domain.Candidate{}, false, nil
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	now := time.Now().UTC()
	return domain.Candidate{
		Key:       domain.IssueKey(unit.Origin, issue.GetNumber()),
		Source:    domain.SourceGitHubIssues,
		Tech:      unit.Tech,
		Origin:    unit.Origin,
		Title:     foldTitle(issue.GetTitle()),
		Problem:   clampProblem(cleanBody(issue.GetBody())),
		Solution:  solution,
		Labels:    labels,
		URL:       issue.GetHTMLURL(),
		CreatedAt: issue.GetCreatedAt().Time,
		FetchedAt: now,
	}, true, nil
}

// splitRepo splits "owner/repo" into its parts.
func splitRepo(origin string) (string, string, error) {
	parts := strings.SplitN(origin, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: bad origin %q", domain.ErrInvalidInput, origin)
	}
	return parts[0], parts[1], nil
}
