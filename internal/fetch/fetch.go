package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/arcanaland/highlander/internal/metrics"
)

// Defaults matching the upstream API's published limits
const (
	DefaultInterval   = 100 * time.Millisecond
	DefaultRetryAfter = 60 * time.Second
	DefaultBackoff    = 5 * time.Second
	DefaultUserAgent  = "PHL-Legality-Checker/1.0"
)

// HTTPClient is the subset of *http.Client the fetcher needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds fetcher settings. Zero values fall back to the defaults.
type Config struct {
	// Interval is the minimum time between two requests
	Interval time.Duration
	// RetryAfter is used when a 429 response carries no Retry-After hint
	RetryAfter time.Duration
	// Backoff is multiplied by the attempt number between retries
	Backoff   time.Duration
	UserAgent string
	Client    HTTPClient
	Logger    *zap.Logger
	Sleep     SleepFunc
}

// Fetcher issues GET requests no faster than a fixed interval and waits
// out "too many requests" responses.
type Fetcher struct {
	client     HTTPClient
	limiter    *rate.Limiter
	retryAfter time.Duration
	backoff    time.Duration
	userAgent  string
	logger     *zap.Logger
	sleep      SleepFunc
}

// NetworkError is returned once every attempt of FetchWithRetry has failed
type NetworkError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to fetch from %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// New creates a Fetcher from config
func New(config Config) *Fetcher {
	f := &Fetcher{
		client:     config.Client,
		retryAfter: config.RetryAfter,
		backoff:    config.Backoff,
		userAgent:  config.UserAgent,
		logger:     config.Logger,
		sleep:      config.Sleep,
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	if f.retryAfter <= 0 {
		f.retryAfter = DefaultRetryAfter
	}
	if f.backoff <= 0 {
		f.backoff = DefaultBackoff
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.sleep == nil {
		f.sleep = Sleep
	}

	interval := config.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	f.limiter = rate.NewLimiter(limit, 1)
	return f
}

// Fetch performs a rate limited GET. A 429 response is never returned: the
// fetcher sleeps for the advertised Retry-After and tries again until the
// peer answers with something else or ctx is done.
func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Encoding", "gzip")
		req.Header.Set("User-Agent", f.userAgent)
		for key, values := range header {
			req.Header[key] = values
		}

		resp, err := f.client.Do(req)
		if err != nil {
			metrics.FetchRequests.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.FetchRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		wait := f.parseRetryAfter(resp.Header.Get("Retry-After"))
		resp.Body.Close()
		f.logger.Info("rate limited by catalog API, waiting before retry",
			zap.String("url", url),
			zap.Duration("wait", wait))
		if err := f.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// FetchWithRetry calls Fetch up to maxAttempts times, sleeping attempt*Backoff
// between failed attempts.
func (f *Fetcher) FetchWithRetry(ctx context.Context, url string, header http.Header, maxAttempts int) (*http.Response, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := f.Fetch(ctx, url, header)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := time.Duration(attempt) * f.backoff
		f.logger.Warn("fetch attempt failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := f.sleep(ctx, delay); err != nil {
			return nil, &NetworkError{URL: url, Attempts: attempt, Err: errors.Join(lastErr, err)}
		}
	}

	return nil, &NetworkError{URL: url, Attempts: maxAttempts, Err: lastErr}
}

// parseRetryAfter accepts delay seconds or an HTTP date
func (f *Fetcher) parseRetryAfter(value string) time.Duration {
	if value == "" {
		return f.retryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
		return 0
	}
	return f.retryAfter
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
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
