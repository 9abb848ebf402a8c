package httpclient

import (
	"net/http"
	"time"
)

// Profile selects the header set sent with each request.
type Profile string

const (
	// BrowserProfile sends browser-like headers. The webb-tv site serves
	// a reduced page to clients without an Accept/User-Agent it recognizes.
	BrowserProfile Profile = "browser"

	// PlainProfile sends curl-like headers for hosts that reject
	// browser User-Agents (media CDNs behind bot protection).
	PlainProfile Profile = "plain"
)

// DefaultTimeout bounds a single request. There is no deadline spanning a
// whole discovery or processing cycle, only this per-request boundary.
const DefaultTimeout = 30 * time.Second

// Client wraps an http.Client with a header profile and request timeout.
type Client struct {
	client  *http.Client
	profile Profile
}

// New creates a client with the given profile and the default timeout.
func New(profile Profile) *Client {
	return NewWithTimeout(profile, DefaultTimeout)
}

// NewWithTimeout creates a client with an explicit per-request timeout.
// A zero timeout disables the boundary; media downloads use that, since a
// full-length broadcast can legitimately take longer than any fixed cap.
func NewWithTimeout(profile Profile, timeout time.Duration) *Client {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	return &Client{
		client:  client,
		profile: profile,
	}
}

// Do executes a request with the profile's headers applied.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	c.setHeaders(req)
	return c.client.Do(req)
}

// Get is a convenience method for GET requests.
func (c *Client) Get(url string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

func (c *Client) setHeaders(req *http.Request) {
	switch c.profile {
	case BrowserProfile:
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")
		req.Header.Set("Connection", "keep-alive")

	case PlainProfile:
		req.Header.Set("User-Agent", "curl/8.7.1")
	}
}
