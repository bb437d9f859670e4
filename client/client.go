package client

import (
	"net/http"

	"coursecast/config"
)

// Client talks to the course generation service. Generation endpoints use a
// long-timeout HTTP client because content generation is minutes-scale, while
// course fetches fail fast.
type Client struct {
	baseURL   string
	userEmail string

	fetchClient *http.Client
	genClient   *http.Client
}

// New creates a generation service client for the given base URL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	return &Client{
		baseURL:     baseURL,
		fetchClient: &http.Client{Timeout: config.FetchTimeout},
		genClient:   &http.Client{Timeout: config.GenerationTimeout},
	}
}

// WithUser returns a copy of the client that forwards the given user identity
// on every request.
func (c *Client) WithUser(email string) *Client {
	cp := *c
	cp.userEmail = email
	return &cp
}
