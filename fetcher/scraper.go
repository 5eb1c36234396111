package fetcher

import (
	"context"
	"fmt"
)

// Fetcher retrieves the watched page, honouring cached validators
type Fetcher interface {
	// Fetch returns NotModified when the server confirms prev is still current
	Fetch(ctx context.Context, prev Validators) (*Response, error)
}

// Validators are the tokens a server hands out so the next request can be conditional
type Validators struct {
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// IsZero reports whether no validator is cached
func (v Validators) IsZero() bool {
	return v.ETag == "" && v.LastModified == ""
}

// Merge overlays the non-empty tokens of next onto v.
// A response that omits a header must not erase a previously cached token.
func (v Validators) Merge(next Validators) Validators {
	if next.ETag != "" {
		v.ETag = next.ETag
	}
	if next.LastModified != "" {
		v.LastModified = next.LastModified
	}
	return v
}

// Response is the outcome of a conditional fetch
type Response struct {
	Body        []byte
	NotModified bool
	Validators  Validators // Validators to use for the next fetch
}

// FetchError reports a failed retrieval of the primary page.
// StatusCode is zero when the request never got a response (network error, timeout).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
