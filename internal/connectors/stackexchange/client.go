package stackexchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/harvest-cli/internal/logger"
)

const (
	// DefaultBaseURL is the Stack Exchange API root.
	DefaultBaseURL = "https://api.stackexchange.com/2.3"

	// DefaultSite is the Stack Exchange site queried.
	DefaultSite = "stackoverflow"

	// PageSize is the API maximum page size.
	PageSize = 100

	// MaxPages bounds how many pages one tag scan may fetch; the votes
	// sort puts the valuable questions first.
	MaxPages = 10

	// QuotaLowWater stops the scan when the daily quota runs this low.
	QuotaLowWater = 10

	// ProactiveRate throttles unauthenticated clients well under the
	// 30 req/sec burst limit the API documents.
	ProactiveRate = 2.0

	// bodyFilter asks the API to include rendered bodies.
	bodyFilter = "withbody"
)

// APIError is a non-2xx or error_id response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stackexchange: API error %d: %s", e.StatusCode, e.Message)
}

// HTTPStatus returns the response status code.
func (e *APIError) HTTPStatus() int { return e.StatusCode }

// Client talks to the Stack Exchange REST API.
type Client struct {
	baseURL    string
	site       string
	key        string
	httpClient *http.Client
	bucket     *rate.Limiter

	// sleep is swapped out in tests so backoff handling is instant.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the given site. key is the optional
// API key raising the daily quota; empty is valid.
func NewClient(site, key string) *Client {
	if site == "" {
		site = DefaultSite
	}
	return &Client{
		baseURL:    DefaultBaseURL,
		site:       site,
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		bucket:     rate.NewLimiter(rate.Limit(ProactiveRate), 1),
		sleep:      sleepCtx,
	}
}

// NewClientWithBaseURL creates a client against a custom API root.
// Used in tests against a local server.
func NewClientWithBaseURL(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		site:       DefaultSite,
		httpClient: httpClient,
		bucket:     rate.NewLimiter(rate.Inf, 1),
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// question is one item from the /questions endpoint.
type question struct {
	QuestionID       int64    `json:"question_id"`
	Title            string   `json:"title"`
	Body             string   `json:"body"`
	Link             string   `json:"link"`
	CreationDate     int64    `json:"creation_date"`
	Score            int      `json:"score"`
	Tags             []string `json:"tags"`
	IsAnswered       bool     `json:"is_answered"`
	AcceptedAnswerID int64    `json:"accepted_answer_id"`
}

// answer is one item from the /answers endpoint.
type answer struct {
	AnswerID int64  `json:"answer_id"`
	Body     string `json:"body"`
	Score    int    `json:"score"`
}

// envelope is the common API response wrapper.
type envelope[T any] struct {
	Items          []T    `json:"items"`
	HasMore        bool   `json:"has_more"`
	QuotaRemaining int    `json:"quota_remaining"`
	Backoff        int    `json:"backoff"`
	ErrorID        int    `json:"error_id"`
	ErrorMessage   string `json:"error_message"`
}

// questionsPage is one page of tagged questions plus the throttling
// state the caller needs.
type questionsPage struct {
	items          []question
	hasMore        bool
	quotaRemaining int
}

// fetchQuestions returns one page of questions for a tag, sorted by
// votes descending. The API's backoff field is honoured before
// returning.
func (c *Client) fetchQuestions(ctx context.Context, tag string, fromDate time.Time, page int) (*questionsPage, error) {
	if err := c.bucket.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("site", c.site)
	q.Set("tagged", tag)
	q.Set("order", "desc")
	q.Set("sort", "votes")
	q.Set("pagesize", strconv.Itoa(PageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("filter", bodyFilter)
	if !fromDate.IsZero() {
		q.Set("fromdate", strconv.FormatInt(fromDate.Unix(), 10))
	}
	if c.key != "" {
		q.Set("key", c.key)
	}

	env, err := doGet[question](ctx, c, "/questions?"+q.Encode())
	if err != nil {
		return nil, err
	}

	if env.Backoff > 0 {
		logger.Warn("stackexchange: backing off %ds", env.Backoff)
		if err := c.sleep(ctx, time.Duration(env.Backoff)*time.Second); err != nil {
			return nil, err
		}
	}

	return &questionsPage{
		items:          env.Items,
		hasMore:        env.HasMore,
		quotaRemaining: env.QuotaRemaining,
	}, nil
}

// fetchAnswer returns one answer body by id.
func (c *Client) fetchAnswer(ctx context.Context, id int64) (*answer, error) {
	if err := c.bucket.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("site", c.site)
	q.Set("filter", bodyFilter)
	if c.key != "" {
		q.Set("key", c.key)
	}

	env, err := doGet[answer](ctx, c, fmt.Sprintf("/answers/%d?%s", id, q.Encode()))
	if err != nil {
		return nil, err
	}
	if env.Backoff > 0 {
		if err := c.sleep(ctx, time.Duration(env.Backoff)*time.Second); err != nil {
			return nil, err
		}
	}
	if len(env.Items) == 0 {
		return nil, nil
	}
	return &env.Items[0], nil
}

// doGet runs one API GET and decodes the envelope, mapping API-level
// errors to APIError.
func doGet[T any](ctx context.Context, c *Client, path string) (*envelope[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.ErrorID != 0 {
		// error_id mirrors HTTP semantics (400 bad parameter, 502
		// throttle violation) even on a 200 response.
		return nil, &APIError{StatusCode: env.ErrorID, Message: env.ErrorMessage}
	}
	return &env, nil
}
