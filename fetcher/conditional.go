package fetcher

import (
	"context"
	"log/slog"
	"net/http"
)

// ConditionalFetcher fetches one fixed URL using If-None-Match / If-Modified-Since
type ConditionalFetcher struct {
	client *Client
	url    string
}

var _ Fetcher = (*ConditionalFetcher)(nil)

// NewConditionalFetcher creates a fetcher for the given target URL
func NewConditionalFetcher(client *Client, url string) *ConditionalFetcher {
	return &ConditionalFetcher{
		client: client,
		url:    url,
	}
}

// Fetch implements the Fetcher interface
func (f *ConditionalFetcher) Fetch(ctx context.Context, prev Validators) (*Response, error) {
	header := http.Header{}
	if prev.ETag != "" {
		header.Set("If-None-Match", prev.ETag)
	}
	if prev.LastModified != "" {
		header.Set("If-Modified-Since", prev.LastModified)
	}

	resp, body, err := f.client.Get(ctx, f.url, header)
	if err != nil {
		return nil, &FetchError{URL: f.url, Err: err}
	}

	if resp.StatusCode == http.StatusNotModified {
		slog.Debug("Page not modified", "url", f.url)
		return &Response{NotModified: true, Validators: prev}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: f.url, StatusCode: resp.StatusCode}
	}

	next := prev.Merge(Validators{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	})

	slog.Debug("Fetched page", "url", f.url, "status", resp.StatusCode, "bytes", len(body), "etag", next.ETag, "last_modified", next.LastModified)

	return &Response{Body: body, Validators: next}, nil
}
