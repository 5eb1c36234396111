package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize bounds how much of a response is read into memory
const maxBodySize = 16 << 20

// Client performs GET requests with the watcher's identifying header and a bounded timeout
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	maxBody    int64
}

// NewClient creates a Client. A nil httpClient uses a fresh http.Client.
func NewClient(httpClient *http.Client, userAgent string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		maxBody:    maxBodySize,
	}
}

// Get issues a GET with extra headers and returns the response with its body fully read.
// Non-2xx statuses are not treated as errors here; callers decide.
func (c *Client) Get(ctx context.Context, url string, header http.Header) (*http.Response, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return resp, nil, fmt.Errorf("response body exceeds %d bytes", c.maxBody)
	}

	return resp, body, nil
}
