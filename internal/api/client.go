package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client represents a backend generation API client
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

// NewClient creates a new backend API client.
// The client-level timeout covers the submission call (30s class); polling
// callers pass a shorter per-attempt context on top of it.
func NewClient(baseURL, apiKey string) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}

	// Configure resty client. No transport-level retries: the poller owns
	// the retry budget and submission is single-shot.
	client.http = resty.New().
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)

	return client
}

// Get performs a GET request against the backend API
func (c *Client) Get(ctx context.Context, endpoint string) (*resty.Response, error) {
	return c.http.R().
		SetContext(ctx).
		Get(c.BuildURL(endpoint))
}

// Post performs a POST request with a JSON payload against the backend API
func (c *Client) Post(ctx context.Context, endpoint string, payload interface{}) (*resty.Response, error) {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.BuildURL(endpoint))
}

// BuildURL constructs the full URL for an endpoint
func (c *Client) BuildURL(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	return fmt.Sprintf("%s/%s", c.baseURL, endpoint)
}

// SetTimeout allows customizing the timeout for specific operations
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.SetTimeout(timeout)
}
