package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/flowsankey/pkg/buildinfo"
)

const (
	// DefaultMaxBytes bounds a fetched image body.
	DefaultMaxBytes = 8 << 20

	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
	defaultTimeout  = 15 * time.Second
)

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("httputil: not found")

	// ErrTooLarge is returned when a body exceeds the fetcher's limit.
	ErrTooLarge = errors.New("httputil: response too large")

	// ErrNotImage is returned when the response is not an image.
	ErrNotImage = errors.New("httputil: response is not an image")
)

// Fetcher downloads images over HTTP(S). Fetcher is safe for concurrent
// use when its Cache is nil or keys do not collide.
type Fetcher struct {
	Client   *http.Client
	Cache    *Cache // optional
	MaxBytes int64
	Attempts int
	Delay    time.Duration
}

// NewFetcher returns a fetcher with default limits. cache may be nil.
func NewFetcher(cache *Cache) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: defaultTimeout},
		Cache:    cache,
		MaxBytes: DefaultMaxBytes,
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
	}
}

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Fetch returns the body of url, from the cache when fresh.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.Cache != nil {
		if data, ok, _ := f.Cache.Get(url); ok {
			return data, nil
		}
	}

	var data []byte
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		var err error
		data, err = f.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if f.Cache != nil {
		_ = f.Cache.Set(url, data)
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.ServerHeader())
	req.Header.Set("Accept", "image/png, image/jpeg")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || !strings.HasPrefix(mt, "image/") {
			return nil, fmt.Errorf("%w: %s", ErrNotImage, ct)
		}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests || code >= 500:
		return &RetryableError{Err: fmt.Errorf("status %d", code)}
	default:
		return fmt.Errorf("status %d", code)
	}
}
