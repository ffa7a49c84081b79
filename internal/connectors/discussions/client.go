package discussions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/harvest-cli/internal/connectors/github"
)

// DefaultEndpoint is the GitHub GraphQL API endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// pageSize is the number of discussions fetched per GraphQL page.
const pageSize = 50

// Client is a minimal GraphQL client for the discussions query.
type Client struct {
	endpoint    string
	token       string
	httpClient  *http.Client
	rateLimiter *github.RateLimiter
}

// NewClient creates a discussions client authenticated with a token.
func NewClient(token string) (*Client, error) {
	if token == "" {
		return nil, github.ErrNoToken
	}
	return &Client{
		endpoint:    DefaultEndpoint,
		token:       token,
		httpClient:  &http.Client{Timeout: github.DefaultTimeout},
		rateLimiter: github.NewRateLimiter(),
	}, nil
}

// NewClientWithEndpoint creates a client against a custom endpoint.
// Used in tests against a local server.
func NewClientWithEndpoint(endpoint string, httpClient *http.Client) *Client {
	rl := github.NewRateLimiter()
	rl.SetRate(rate.Inf)
	return &Client{
		endpoint:    endpoint,
		token:       "test",
		httpClient:  httpClient,
		rateLimiter: rl,
	}
}

const discussionsQuery = `
query($owner: String!, $name: String!, $first: Int!, $after: String) {
  repository(owner: $owner, name: $name) {
    discussions(first: $first, after: $after, answered: true,
                orderBy: {field: CREATED_AT, direction: DESC}) {
      pageInfo { hasNextPage endCursor }
      nodes {
        number
        title
        body
        url
        createdAt
        upvoteCount
        category { name }
        answer { body upvoteCount }
        comments(first: 20) {
          nodes { body isAnswer upvoteCount }
        }
      }
    }
  }
}`

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type gqlResponse struct {
	Data struct {
		Repository *struct {
			Discussions struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []discussionNode `json:"nodes"`
			} `json:"discussions"`
		} `json:"repository"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type discussionNode struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	UpvoteCount int       `json:"upvoteCount"`
	Category    struct {
		Name string `json:"name"`
	} `json:"category"`
	Answer *struct {
		Body        string `json:"body"`
		UpvoteCount int    `json:"upvoteCount"`
	} `json:"answer"`
	Comments struct {
		Nodes []commentNode `json:"nodes"`
	} `json:"comments"`
}

type commentNode struct {
	Body        string `json:"body"`
	IsAnswer    bool   `json:"isAnswer"`
	UpvoteCount int    `json:"upvoteCount"`
}

// discussionsPage holds one page of results.
type discussionsPage struct {
	nodes       []discussionNode
	hasNextPage bool
	endCursor   string
}

// fetchPage runs the discussions query for one page. after is empty for
// the first page.
func (c *Client) fetchPage(ctx context.Context, owner, name, after string) (*discussionsPage, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	vars := map[string]any{
		"owner": owner,
		"name":  name,
		"first": pageSize,
	}
	if after != "" {
		vars["after"] = after
	}

	body, err := json.Marshal(gqlRequest{Query: discussionsQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &github.APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			URL:        c.endpoint,
		}
	}

	var out gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		// Body-level errors are request problems, not transport faults.
		return nil, &github.APIError{
			StatusCode: http.StatusBadRequest,
			Message:    out.Errors[0].Message,
			URL:        c.endpoint,
		}
	}
	if out.Data.Repository == nil {
		return nil, &github.APIError{
			StatusCode: http.StatusNotFound,
			Message:    "repository not found",
			URL:        c.endpoint,
		}
	}

	d := out.Data.Repository.Discussions
	return &discussionsPage{
		nodes:       d.Nodes,
		hasNextPage: d.PageInfo.HasNextPage,
		endCursor:   d.PageInfo.EndCursor,
	}, nil
}
