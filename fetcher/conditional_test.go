package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConditionalFetcherCachesValidators(t *testing.T) {
	var gotUA, gotINM, gotIMS string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotINM = r.Header.Get("If-None-Match")
		gotIMS = r.Header.Get("If-Modified-Since")

		if gotINM == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 19 Oct 2026 10:00:00 GMT")
		w.Write([]byte("<html>catalog</html>"))
	}))
	defer server.Close()

	f := NewConditionalFetcher(NewClient(server.Client(), "Watcher-Test/1.0", 5*time.Second), server.URL)
	ctx := context.Background()

	// First fetch has no validators
	resp, err := f.Fetch(ctx, Validators{})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.NotModified {
		t.Fatal("first fetch should not be NotModified")
	}
	if string(resp.Body) != "<html>catalog</html>" {
		t.Errorf("unexpected body %q", resp.Body)
	}
	if gotINM != "" || gotIMS != "" {
		t.Errorf("first fetch sent conditional headers: %q %q", gotINM, gotIMS)
	}
	if gotUA != "Watcher-Test/1.0" {
		t.Errorf("expected identifying user agent, got %q", gotUA)
	}
	if resp.Validators.ETag != `"v1"` || resp.Validators.LastModified == "" {
		t.Errorf("validators not captured: %+v", resp.Validators)
	}

	// Second fetch is conditional and unchanged
	second, err := f.Fetch(ctx, resp.Validators)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !second.NotModified {
		t.Error("expected NotModified on second fetch")
	}
	if second.Body != nil {
		t.Error("NotModified response should carry no body")
	}
	if second.Validators != resp.Validators {
		t.Errorf("validators changed on 304: %+v", second.Validators)
	}
	if gotIMS != "Mon, 19 Oct 2026 10:00:00 GMT" {
		t.Errorf("expected If-Modified-Since to be sent, got %q", gotIMS)
	}
}

func TestConditionalFetcherKeepsTokenWhenHeaderAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only a fresh Last-Modified, no ETag
		w.Header().Set("Last-Modified", "Tue, 20 Oct 2026 08:00:00 GMT")
		w.Write([]byte("changed"))
	}))
	defer server.Close()

	f := NewConditionalFetcher(NewClient(server.Client(), "ua", time.Second), server.URL)
	prev := Validators{ETag: `"old"`, LastModified: "Mon, 19 Oct 2026 10:00:00 GMT"}

	resp, err := f.Fetch(context.Background(), prev)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.Validators.ETag != `"old"` {
		t.Errorf("ETag should survive a response without one, got %q", resp.Validators.ETag)
	}
	if resp.Validators.LastModified != "Tue, 20 Oct 2026 08:00:00 GMT" {
		t.Errorf("Last-Modified should be replaced, got %q", resp.Validators.LastModified)
	}
}

func TestConditionalFetcherErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"server error", http.StatusInternalServerError, 500},
		{"not found", http.StatusNotFound, 404},
		{"rate limited", http.StatusTooManyRequests, 429},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := NewConditionalFetcher(NewClient(server.Client(), "ua", time.Second), server.URL)
			_, err := f.Fetch(context.Background(), Validators{})

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected *FetchError, got %v", err)
			}
			if fetchErr.StatusCode != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, fetchErr.StatusCode)
			}
		})
	}
}

func TestConditionalFetcherTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := NewConditionalFetcher(NewClient(server.Client(), "ua", 50*time.Millisecond), server.URL)
	_, err := f.Fetch(context.Background(), Validators{})

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError on timeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestValidatorsMerge(t *testing.T) {
	base := Validators{ETag: "a", LastModified: "x"}
	if got := base.Merge(Validators{}); got != base {
		t.Errorf("empty merge changed validators: %+v", got)
	}
	if got := base.Merge(Validators{ETag: "b"}); got.ETag != "b" || got.LastModified != "x" {
		t.Errorf("unexpected merge result: %+v", got)
	}
	if !(Validators{}).IsZero() {
		t.Error("zero validators should report IsZero")
	}
}

func TestClientRejectsOversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	c := NewClient(server.Client(), "Watcher-Test/1.0", 5*time.Second)

	c.maxBody = 10
	if _, body, err := c.Get(context.Background(), server.URL, nil); err != nil || len(body) != 10 {
		t.Fatalf("body at the limit should be read in full, got %d bytes, %v", len(body), err)
	}

	c.maxBody = 9
	f := NewConditionalFetcher(c, server.URL)
	_, err := f.Fetch(context.Background(), Validators{})
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Errorf("expected *FetchError for a truncated page, got %v", err)
	}
}
