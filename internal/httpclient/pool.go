// Package httpclient provides the bounded outbound fetcher shared by every
// ingestion pipeline: a global in-flight cap plus a per-host minimum
// interval between request starts.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "CanPoliAPI/1.0"

// FetchError wraps any transport failure or non-2xx response.
type FetchError struct {
	URL   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Result is a fetched document.
type Result struct {
	URL  string
	Text string
}

// Config tunes the pool.
type Config struct {
	Timeout        time.Duration
	MaxConcurrency int
	MinInterval    time.Duration
	Transport      http.RoundTripper
}

// Pool is safe for concurrent use by multiple pipelines.
type Pool struct {
	client      *http.Client
	semaphore   chan struct{}
	minInterval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New constructs a pool with sane defaults filled in.
func New(cfg Config) *Pool {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Transport != nil {
		client.Transport = cfg.Transport
	}
	return &Pool{
		client:      client,
		semaphore:   make(chan struct{}, cfg.MaxConcurrency),
		minInterval: cfg.MinInterval,
		limiters:    make(map[string]*rate.Limiter),
	}
}

func (p *Pool) hostLimiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	limiter, ok := p.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(p.minInterval), 1)
		p.limiters[host] = limiter
	}
	return limiter
}

// Get fetches a URL with the uniform headers.
func (p *Pool) Get(ctx context.Context, rawURL string) (Result, error) {
	return p.fetch(ctx, http.MethodGet, rawURL, "", nil)
}

// PostForm posts url-encoded form values.
func (p *Pool) PostForm(ctx context.Context, rawURL string, form url.Values) (Result, error) {
	return p.fetch(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
}

func (p *Pool) fetch(ctx context.Context, method, rawURL, contentType string, body io.Reader) (Result, error) {
	select {
	case p.semaphore <- struct{}{}:
	case <-ctx.Done():
		return Result{}, &FetchError{URL: rawURL, Cause: ctx.Err()}
	}
	defer func() { <-p.semaphore }()

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, &FetchError{URL: rawURL, Cause: err}
	}
	if p.minInterval > 0 {
		if err := p.hostLimiter(parsed.Host).Wait(ctx); err != nil {
			return Result{}, &FetchError{URL: rawURL, Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return Result{}, &FetchError{URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, &FetchError{URL: rawURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return Result{}, &FetchError{URL: rawURL, Cause: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &FetchError{URL: rawURL, Cause: err}
	}
	return Result{URL: rawURL, Text: string(text)}, nil
}
