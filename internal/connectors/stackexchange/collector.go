package stackexchange

import (
	"context"
	"time"

	"github.com/custodia-labs/harvest-cli/internal/connectors"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Config holds settings for the question collector.
type Config struct {
	// MinDate is the creation-date floor passed to the API as fromdate
	// and applied again per record.
	MinDate time.Time

	// MaxPages overrides the per-tag page bound. Zero means MaxPages.
	MaxPages int
}

func (c Config) maxPages() int {
	if c.MaxPages > 0 {
		return c.MaxPages
	}
	return MaxPages
}

// Collector harvests accepted-answer questions for one tag at a time.
type Collector struct {
	client *Client
	cfg    Config
}

// New creates a question collector over an existing client.
func New(client *Client, cfg Config) *Collector {
	return &Collector{client: client, cfg: cfg}
}

// Source implements driven.Collector.
func (sc *Collector) Source() string {
	return domain.SourceStackOverflow
}

// Collect implements driven.Collector. unit.Origin is the question tag.
func (sc *Collector) Collect(
	ctx context.Context, unit driven.SourceUnit, cap int,
) (<-chan domain.Candidate, <-chan error) {
	out := make(chan domain.Candidate)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		logger.Info("stackexchange: scanning tag %q", unit.Origin)

		sent := 0
		for page := 1; page <= sc.cfg.maxPages(); page++ {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			default:
			}

			var p *questionsPage
			err := connectors.Retry(ctx, func() error {
				var ferr error
				p, ferr = sc.client.fetchQuestions(ctx, unit.Origin, sc.cfg.MinDate, page)
				return ferr
			})
			if err != nil {
				errs <- err
				return
			}

			for _, q := range p.items {
				if cap > 0 && sent >= cap {
					return
				}
				c, ok, err := sc.buildCandidate(ctx, unit, q)
				if err != nil {
					errs <- err
					return
				}
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

			if !p.hasMore || (cap > 0 && sent >= cap) {
				return
			}
			if p.quotaRemaining < QuotaLowWater {
				logger.Warn("stackexchange: quota low (%d), stopping tag %q", p.quotaRemaining, unit.Origin)
				return
			}
		}
	}()

	return out, errs
}

// buildCandidate resolves the accepted answer and assembles a
// candidate. ok is false for unanswered or unusable questions.
func (sc *Collector) buildCandidate(
	ctx context.Context, unit driven.SourceUnit, q question,
) (domain.Candidate, bool, error) {
	if !q.IsAnswered || q.AcceptedAnswerID == 0 {
		return domain.Candidate{}, false, nil
	}

	created := time.Unix(q.CreationDate, 0).UTC()
	if created.Before(sc.cfg.MinDate) {
		return domain.Candidate{}, false, nil
	}

	var ans *answer
	err := connectors.Retry(ctx, func() error {
		var ferr error
		ans, ferr = sc.client.fetchAnswer(ctx, q.AcceptedAnswerID)
		return ferr
	})
	if err != nil {
		return domain.Candidate{}, false, err
	}
	if ans == nil {
		return domain.Candidate{}, false, nil
	}

	solution := cleanHTML(ans.Body)
	if solution == "" {
		return domain.Candidate{}, false, nil
	}

	return domain.Candidate{
		Key:       domain.QuestionKey(q.QuestionID),
		Source:    domain.SourceStackOverflow,
		Tech:      unit.Tech,
		Origin:    unit.Origin,
		Title:     cleanHTML(q.Title),
		Problem:   cleanHTML(q.Body),
		Solution:  solution,
		Labels:    q.Tags,
		Score:     q.Score,
		URL:       q.Link,
		CreatedAt: created,
		FetchedAt: time.Now().UTC(),
	}, true, nil
}
