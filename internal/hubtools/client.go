package hubtools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/evalstate/hf-mcp-server-sub001/pkg/logging"
)

// DefaultHubURL is the Hugging Face Hub API base.
const DefaultHubURL = "https://huggingface.co"

// DefaultDocSearchURL is the documentation semantic search endpoint.
const DefaultDocSearchURL = "https://hf.co/api/docs/search"

const defaultRequestTimeout = 30 * time.Second

// Client is a minimal Hub API client bound to one request-scoped token.
// The token is forwarded verbatim as a bearer credential; the gateway never
// validates it.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Hub client for the given token. An empty token is
// valid; the Hub serves public data without credentials.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultHubURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
	}
}

// Get performs a GET against path (joined to the base URL) with the query
// values and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil)
}

// GetAbsolute performs a GET against a fully qualified URL, still carrying
// the bound token. Used for endpoints outside the Hub API base.
func (c *Client) GetAbsolute(ctx context.Context, fullURL string, query url.Values) ([]byte, error) {
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, fullURL, nil)
}

// Post performs a POST with a JSON body against path.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) ([]byte, error) {
	return c.do(ctx, http.MethodPost, c.baseURL+path, body)
}

// Delete performs a DELETE against path.
func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, c.baseURL+path, nil)
}

func (c *Client) do(ctx context.Context, method, fullURL string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading hub response: %w", err)
	}

	if resp.StatusCode >= 400 {
		logging.Debug("HubClient", "%s %s returned %d", method, fullURL, resp.StatusCode)
		return nil, fmt.Errorf("hub returned status %d: %s", resp.StatusCode, truncateBody(data))
	}
	return data, nil
}

func truncateBody(data []byte) string {
	const limit = 256
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
