// Package scrape extracts broadcast sessions from the webb-tv site: the
// listing page (discovery) and each session's own page (enrichment).
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"webtv-clipper/pkg/httpclient"
)

// FetchError reports a failed page fetch: transport failure or a
// non-success status. The affected candidate or cycle is skipped without
// side effects and retried on the next run.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status code %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// fetchHTML fetches a page and returns its body, wrapping any failure in a
// FetchError so callers can distinguish fetch problems from parse problems.
func fetchHTML(ctx context.Context, client *httpclient.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("read response body: %w", err)}
	}

	return string(body), nil
}
