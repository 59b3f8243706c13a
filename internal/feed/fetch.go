package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/isaacw/deckcal/internal/calendar"
)

// Fetcher retrieves and parses a remote ICS feed. Pure I/O plus parse; the
// retry and staleness policy lives in the refresh cache.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs one network round-trip and returns the feed's events.
// Transport failures and non-2xx statuses surface as *FetchError, malformed
// payloads as *ParseError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]calendar.RawEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("read response: %w", err)}
	}

	events, err := Parse(payload)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	return events, nil
}

// RedactURL hides everything past the host so feed URLs with embedded
// tokens can be logged safely.
func RedactURL(url string) string {
	rest := url
	scheme := ""
	if idx := strings.Index(url, "://"); idx >= 0 {
		scheme = url[:idx+3]
		rest = url[idx+3:]
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	if rest == "" {
		return "(redacted)"
	}
	return scheme + rest + "/…"
}
