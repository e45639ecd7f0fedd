package fhttp

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tlsclient "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

// Doer sends a request. Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client interface {
	tlsclient.HttpClient
}

type client struct {
	tlsclient.HttpClient
}

// NewClient returns a browser-profile HTTP client used to fetch generated
// assets. Redirects are followed since download links point to storage hosts.
func NewClient(timeout time.Duration, proxy string) (Client, error) {
	secs := int(timeout.Seconds())
	if secs <= 0 {
		secs = 30
	}
	options := []tlsclient.HttpClientOption{
		tlsclient.WithTimeoutSeconds(secs),
		tlsclient.WithClientProfile(profiles.Chrome_120),
	}
	if proxy != "" {
		options = append(options, tlsclient.WithProxyUrl(proxy))
	}
	c, err := tlsclient.NewHttpClient(tlsclient.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("fhttp: couldn't create client: %w", err)
	}
	return &client{HttpClient: c}, nil
}

// StatusError is returned by Get for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fhttp: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Get downloads url and returns its body along with the media type of the
// response, without parameters.
func Get(ctx context.Context, c Doer, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fhttp: couldn't create request: %w", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fhttp: couldn't do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &StatusError{Code: resp.StatusCode}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fhttp: couldn't read body: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	return b, strings.TrimSpace(mime), nil
}
