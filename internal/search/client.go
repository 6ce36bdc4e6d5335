// Package search queries the semantic task-search proxy that sits in front of
// the Goodday workspace.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultURL is the placeholder proxy endpoint used when none is configured.
const DefaultURL = "https://example.com/webhook/goodday-mcp/search-tasks"

// ErrMissingToken is returned when a search is attempted without a bearer token.
var ErrMissingToken = errors.New("search: bearer token is required, set GOODDAY_SEARCH_BEARER_TOKEN")

// Result is one hit returned by the proxy.
type Result struct {
	TaskID  string
	Title   string
	Content string
	Score   float64
}

// Error reports a transport or HTTP failure of the proxy.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// ResponseError is returned when the proxy answers with an {"error": ...} object.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string { return "Search error: " + e.Message }

// FormatError is returned when the first response element has no result list.
type FormatError struct {
	Raw string
}

func (e *FormatError) Error() string { return "Unexpected search response format: " + e.Raw }

// Client is the HTTP client for the search proxy.
type Client struct {
	url        string
	token      string
	userAgent  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a search proxy client. An empty endpoint selects DefaultURL.
func NewClient(endpoint, token, userAgent string) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultURL
	}
	return &Client{
		url:       strings.TrimSpace(endpoint),
		token:     token,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
}

// WithHTTPClient sets a custom http.Client.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithLogger sets the request logger.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Search runs a semantic query. An empty or non-list response yields no
// results and no error.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	u, err := url.Parse(c.url)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("Search API request error: %w", err)}
	}
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("Search API request error: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("search request", zap.String("query", query))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("Search API request error: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("Search API request error: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("Search API HTTP error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	c.logger.Debug("search response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(body)))

	return parse(body)
}

func parse(body []byte) ([]Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, &FormatError{Raw: string(body)}
	}
	doc := gjson.ParseBytes(body)

	if doc.IsObject() {
		if e := doc.Get("error"); e.Exists() {
			msg := e.String()
			if msg == "" {
				msg = "Unknown error"
			}
			return nil, &ResponseError{Message: msg}
		}
		return nil, nil
	}
	if !doc.IsArray() {
		return nil, nil
	}

	items := doc.Array()
	if len(items) == 0 {
		return nil, nil
	}
	list := items[0].Get("result")
	if !items[0].IsObject() || !list.Exists() {
		return nil, &FormatError{Raw: doc.Raw}
	}

	var results []Result
	for _, r := range list.Array() {
		if !r.IsObject() {
			continue
		}
		results = append(results, Result{
			TaskID:  r.Get("taskId").String(),
			Title:   r.Get("title").String(),
			Content: r.Get("content").String(),
			Score:   r.Get("score").Float(),
		})
	}
	return results, nil
}

// Hit is a task-level search hit after duplicate chunks have been merged.
type Hit struct {
	Result
	Additional []string
}

// Merge groups results by task id, keeping first-seen order. Content of later
// chunks for the same task is kept as additional content when it is non-empty
// and not already present.
func Merge(results []Result) []Hit {
	var hits []Hit
	index := make(map[string]int)
	for _, r := range results {
		id := r.TaskID
		if id == "" {
			id = "N/A"
		}
		i, seen := index[id]
		if !seen {
			index[id] = len(hits)
			hits = append(hits, Hit{Result: r})
			continue
		}
		if r.Content == "" || hits[i].contains(r.Content) {
			continue
		}
		hits[i].Additional = append(hits[i].Additional, r.Content)
	}
	return hits
}

func (h *Hit) contains(s string) bool {
	if strings.Contains(h.Content, s) || strings.Contains(h.Title, s) {
		return true
	}
	for _, a := range h.Additional {
		if strings.Contains(a, s) {
			return true
		}
	}
	return false
}
