package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyBody is returned for a successful response without content.
var ErrEmptyBody = errors.New("empty response body")

// Fetcher downloads the binary of an image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// DefaultMaxImageBytes caps a single downloaded image.
const DefaultMaxImageBytes = 50 << 20

// HTTPFetcher downloads images anonymously: no cookie jar and no
// authorization headers are ever sent.
type HTTPFetcher struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPFetcher creates a fetcher with a per-request timeout.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &HTTPFetcher{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: maxBytes,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", f.MaxBytes)
	}
	if len(data) == 0 {
		return nil, ErrEmptyBody
	}
	return data, nil
}

// Route sends URLs starting with Prefix to Fetcher
type Route struct {
	Prefix  string
	Fetcher Fetcher
}

// RoutingFetcher picks the first route whose prefix matches and falls back
// to Default.
type RoutingFetcher struct {
	Routes  []Route
	Default Fetcher
}

func (f *RoutingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	for _, r := range f.Routes {
		if r.Prefix != "" && strings.HasPrefix(url, r.Prefix) {
			return r.Fetcher.Fetch(ctx, url)
		}
	}
	return f.Default.Fetch(ctx, url)
}
