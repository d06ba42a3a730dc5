package scraper

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Fetcher downloads one page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// StatusError is returned for a non-retryable or exhausted HTTP status
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d for %s", e.Code, e.URL)
}

// Retry tunes HTTPFetcher retries
type Retry struct {
	MaxAttempts int
	Base        time.Duration // base backoff
	Max         time.Duration // cap per-attempt backoff
	Cooldown    time.Duration // used on 429 when no Retry-After
}

// DefaultRetry returns the retry settings used against the live site
func DefaultRetry() Retry {
	return Retry{
		MaxAttempts: 4,
		Base:        400 * time.Millisecond,
		Max:         6 * time.Second,
		Cooldown:    7 * time.Second,
	}
}

// HTTPFetcher fetches pages over plain HTTP and retries on 429 and 5xx
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	retry     Retry
}

// NewHTTPFetcher creates a fetcher with the given request timeout
func NewHTTPFetcher(userAgent string, timeout time.Duration, retry Retry) *HTTPFetcher {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = 1
	}
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retry:     retry,
	}
}

// Fetch returns the page body. Retry-After is honored on 429.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < f.retry.MaxAttempts; attempt++ {
		body, wait, err := f.try(ctx, url, attempt)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if wait < 0 || attempt == f.retry.MaxAttempts-1 {
			return "", err
		}
		if err := sleep(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted retries for %s: %w", url, lastErr)
}

// try performs one request. A negative wait means the error is not retryable.
func (f *HTTPFetcher) try(ctx context.Context, url string, attempt int) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", -1, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", -1, ctx.Err()
		}
		return "", backoff(attempt, f.retry.Base, f.retry.Max), fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", backoff(attempt, f.retry.Base, f.retry.Max), fmt.Errorf("reading body: %w", err)
		}
		return string(b), 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		if wait == 0 {
			wait = f.retry.Cooldown
		}
		return "", wait, &StatusError{Code: resp.StatusCode, URL: url}
	case resp.StatusCode >= 500 && resp.StatusCode <= 599:
		return "", backoff(attempt, f.retry.Base, f.retry.Max), &StatusError{Code: resp.StatusCode, URL: url}
	default:
		return "", -1, &StatusError{Code: resp.StatusCode, URL: url}
	}
}

func parseRetryAfter(h string) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(h); err == nil {
		return time.Duration(secs) * time.Second
	}
	// HTTP date
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func backoff(attempt int, base, max time.Duration) time.Duration {
	// exponential + jitter, capped
	d := base * time.Duration(1<<attempt)
	j := time.Duration(rand.Intn(250)) * time.Millisecond
	if d+j > max {
		return max
	}
	return d + j
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
