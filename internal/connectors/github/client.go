package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/harvest-cli/internal/connectors"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// PerPage is the page size used for all list calls.
	PerPage = 100
)

// Client wraps the go-github client with rate limiting and the list
// helpers the collectors need.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

// NewClient creates a GitHub client authenticated with a static access
// token. Works for both PAT and OAuth access tokens.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Client{
		gh:          gh.NewClient(tc),
		rateLimiter: NewRateLimiter(),
	}, nil
}

// NewClientWithHTTPClient creates a client over a caller-supplied
// http.Client and base URL. Used in tests against a local server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	c := gh.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		c.BaseURL = u
	}
	// Local servers have no quota; leave only header-driven waits on.
	rl := NewRateLimiter()
	rl.SetRate(rate.Inf)
	return &Client{gh: c, rateLimiter: rl}, nil
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client {
	return c.gh
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// EachClosedIssue pages through closed issues of a repository, newest
// first, calling fn for each one. Pull requests appear in the issues
// listing and are passed through; callers skip them. Returning errStop
// from fn ends the iteration cleanly.
func (c *Client) EachClosedIssue(
	ctx context.Context, owner, repo string, since time.Time, fn func(*gh.Issue) error,
) error {
	opts := &gh.IssueListByRepoOptions{
		State:       "closed",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: PerPage},
	}
	if !since.IsZero() {
		// Since filters on update time server-side; the creation-date
		// floor is still applied per record by the caller.
		opts.Since = since
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		var issues []*gh.Issue
		var resp *gh.Response
		err := connectors.Retry(ctx, func() error {
			var ferr error
			issues, resp, ferr = c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
			return c.wrapError(ferr, "list issues")
		})
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)

		for _, issue := range issues {
			if err := fn(issue); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}

		if resp.NextPage == 0 {
			return nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

// ListIssueComments returns all comments on an issue, oldest first.
func (c *Client) ListIssueComments(
	ctx context.Context, owner, repo string, number int,
) ([]*gh.IssueComment, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: PerPage},
	}

	var all []*gh.IssueComment
	for {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		var comments []*gh.IssueComment
		var resp *gh.Response
		err := connectors.Retry(ctx, func() error {
			var ferr error
			comments, resp, ferr = c.gh.Issues.ListComments(ctx, owner, repo, number, opts)
			return c.wrapError(ferr, "list issue comments")
		})
		if err != nil {
			return nil, err
		}
		c.updateRateLimitFromResponse(resp)
		all = append(all, comments...)

		if resp.NextPage == 0 {
			return all, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

// EachClosedPull pages through closed pull requests, newest first,
// calling fn for each. Merged-state filtering happens in the caller
// since the list endpoint cannot filter on it.
func (c *Client) EachClosedPull(
	ctx context.Context, owner, repo string, fn func(*gh.PullRequest) error,
) error {
	opts := &gh.PullRequestListOptions{
		State:       "closed",
		Sort:        "created",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: PerPage},
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}

		var prs []*gh.PullRequest
		var resp *gh.Response
		err := connectors.Retry(ctx, func() error {
			var ferr error
			prs, resp, ferr = c.gh.PullRequests.List(ctx, owner, repo, opts)
			return c.wrapError(ferr, "list pull requests")
		})
		if err != nil {
			return err
		}
		c.updateRateLimitFromResponse(resp)

		for _, pr := range prs {
			if err := fn(pr); err != nil {
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}

		if resp.NextPage == 0 {
			return nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

// ListReviewComments returns all review comments on a pull request.
func (c *Client) ListReviewComments(
	ctx context.Context, owner, repo string, number int,
) ([]*gh.PullRequestComment, error) {
	opts := &gh.PullRequestListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: PerPage},
	}

	var all []*gh.PullRequestComment
	for {
		select {
		case <-ctx.Done():
			return all, ctx.Err()
		default:
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		var comments []*gh.PullRequestComment
		var resp *gh.Response
		err := connectors.Retry(ctx, func() error {
			var ferr error
			comments, resp, ferr = c.gh.PullRequests.ListComments(ctx, owner, repo, number, opts)
			return c.wrapError(ferr, "list review comments")
		})
		if err != nil {
			return nil, err
		}
		c.updateRateLimitFromResponse(resp)
		all = append(all, comments...)

		if resp.NextPage == 0 {
			return all, nil
		}
		opts.ListOptions.Page = resp.NextPage
	}
}

// ValidateCredentials checks if the configured token is valid.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return c.wrapError(err, "validate credentials")
	}
	c.updateRateLimitFromResponse(resp)
	return nil
}

// updateRateLimitFromResponse updates the rate limiter from response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		u := ""
		if ghErr.Response != nil && ghErr.Response.Request != nil {
			u = ghErr.Response.Request.URL.String()
		}
		status := 0
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		return &APIError{
			StatusCode: status,
			Message:    ghErr.Message,
			URL:        u,
		}
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.rateLimiter.ResetTime(),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
