package discussions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/connectors"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// minStandInAnswerLen is the shortest comment accepted as an answer
// when the discussion has no marked one.
const minStandInAnswerLen = 100

// Config holds settings for the discussions collector.
type Config struct {
	// MinDate is the creation-date floor, applied per discussion.
	MinDate time.Time
}

// Collector harvests answered discussions from one repository at a time.
type Collector struct {
	client *Client
	cfg    Config
}

// New creates a discussions collector over an existing client.
func New(client *Client, cfg Config) *Collector {
	return &Collector{client: client, cfg: cfg}
}

// Source implements driven.Collector.
func (dc *Collector) Source() string {
	return domain.SourceGitHubDiscussions
}

// Collect implements driven.Collector. unit.Origin is "owner/repo".
func (dc *Collector) Collect(
	ctx context.Context, unit driven.SourceUnit, cap int,
) (<-chan domain.Candidate, <-chan error) {
	out := make(chan domain.Candidate)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		parts := strings.SplitN(unit.Origin, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			errs <- fmt.Errorf("%w: bad origin %q", domain.ErrInvalidInput, unit.Origin)
			return
		}
		owner, name := parts[0], parts[1]

		logger.Info("github discussions: scanning %s", unit.Origin)

		sent := 0
		after := ""
		for {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			var page *discussionsPage
			err := connectors.Retry(ctx, func() error {
				var ferr error
				page, ferr = dc.client.fetchPage(ctx, owner, name, after)
				return ferr
			})
			if err != nil {
				errs <- err
				return
			}

			for _, node := range page.nodes {
				if cap > 0 && sent >= cap {
					return
				}
				if node.CreatedAt.Before(dc.cfg.MinDate) {
					continue
				}
				c, ok := dc.buildCandidate(unit, node)
				if !ok {
					continue
				}
				select {
				case out <- c:
					sent++
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}

			if !page.hasNextPage || (cap > 0 && sent >= cap) {
				return
			}
			after = page.endCursor
		}
	}()

	return out, errs
}

// buildCandidate assembles a candidate from one discussion. ok is false
// when no usable answer can be found.
func (dc *Collector) buildCandidate(unit driven.SourceUnit, node discussionNode) (domain.Candidate, bool) {
	answer := pickAnswer(node)
	if answer == "" {
		return domain.Candidate{}, false
	}

	var labels []string
	if node.Category.Name != "" {
		labels = []string{node.Category.Name}
	}

	return domain.Candidate{
		Key:       domain.DiscussionKey(unit.Origin, node.Number),
		Source:    domain.SourceGitHubDiscussions,
		Tech:      unit.Tech,
		Origin:    unit.Origin,
		Title:     strings.Join(strings.Fields(node.Title), " "),
		Problem:   strings.TrimSpace(node.Body),
		Solution:  answer,
		Labels:    labels,
		Category:  node.Category.Name,
		Score:     node.UpvoteCount,
		URL:       node.URL,
		CreatedAt: node.CreatedAt,
		FetchedAt: time.Now().UTC(),
	}, true
}

// pickAnswer resolves the discussion's answer: the marked answer first,
// then a comment flagged isAnswer, then the longest comment of at
// least minStandInAnswerLen characters.
func pickAnswer(node discussionNode) string {
	if node.Answer != nil {
		if a := strings.TrimSpace(node.Answer.Body); a != "" {
			return a
		}
	}

	for _, c := range node.Comments.Nodes {
		if c.IsAnswer {
			if a := strings.TrimSpace(c.Body); a != "" {
				return a
			}
		}
	}

	longest := ""
	for _, c := range node.Comments.Nodes {
		b := strings.TrimSpace(c.Body)
		if len(b) > len(longest) {
			longest = b
		}
	}
	if len(longest) >= minStandInAnswerLen {
		return longest
	}
	return ""
}
