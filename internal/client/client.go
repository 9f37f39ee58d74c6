// Package client polls the simulator's status endpoint.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/serroba/translation-sim/internal/jobs"
)

var (
	// ErrRateLimited is returned when the server answers 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrNotTerminal is returned when polling stops before the job finishes.
	ErrNotTerminal = errors.New("job not finished")
	// ErrTimeout is returned when the total polling time is exceeded.
	ErrTimeout = errors.New("polling timed out")
)

// Client talks to a running simulator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	random     func() float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithRandom sets the source of jitter factors, a func returning values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(cl *Client) {
		cl.random = random
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type statusBody struct {
	Result jobs.Status `json:"result"`
}

type problemBody struct {
	Detail string `json:"detail"`
}

// Status fetches the current status of jobID.
func (c *Client) Status(ctx context.Context, jobID string) (jobs.Status, error) {
	endpoint := c.baseURL + "/status?" + url.Values{"job_id": {jobID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return jobs.StatusUnknown, err
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return jobs.StatusUnknown, fmt.Errorf("get status of %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return jobs.StatusUnknown, ErrRateLimited
	default:
		var problem problemBody

		_ = json.NewDecoder(resp.Body).Decode(&problem)

		return jobs.StatusUnknown, fmt.Errorf("get status of %s: unexpected status %d: %s",
			jobID, resp.StatusCode, problem.Detail)
	}

	var body statusBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return jobs.StatusUnknown, fmt.Errorf("decode status of %s: %w", jobID, err)
	}

	if !body.Result.Valid() {
		return jobs.StatusUnknown, fmt.Errorf("get status of %s: unknown status %q", jobID, body.Result)
	}

	return body.Result, nil
}
