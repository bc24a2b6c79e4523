package ghclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"repomatch/internal/config"
	"repomatch/internal/logging"
	"repomatch/internal/metrics"
)

// StatusError is returned for HTTP responses with status >= 400.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github api status %d for %s", e.Code, e.URL)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Cache stores raw response bodies by URL.
type Cache interface {
	Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool, error)
	Put(ctx context.Context, key string, body []byte) error
}

// HTTPClient is a bearer-token client for the GitHub REST API.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL     string
	rawBaseURL  string
	token       string
	httpClient  *http.Client
	core        *rate.Limiter
	search      *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
	maxAttempts int
	baseBackoff time.Duration
	hydrate     bool

	cache    Cache
	cacheTTL time.Duration
}

// New builds a client from configuration. The token falls back to GITHUB_TOKEN
// through config.ResolveEnv before reaching here.
func New(cfg config.GitHubConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:     cfg.APIBaseURL,
		rawBaseURL:  cfg.RawBaseURL,
		token:       cfg.Token,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		core:        newLimiter(cfg.RPS, cfg.Burst),
		search:      newLimiter(cfg.SearchRPS, cfg.SearchBurst),
		breaker:     newBreaker("github-api", cfg.Breaker),
		maxAttempts: max(cfg.MaxAttempts, 1),
		baseBackoff: cfg.BaseBackoff,
		hydrate:     cfg.HydrateUsers,
	}
}

// WithCache enables response caching for GET requests younger than ttl.
func (c *HTTPClient) WithCache(cache Cache, ttl time.Duration) *HTTPClient {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

func (c *HTTPClient) auth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "repomatch")
}

type callKind int

const (
	kindCore callKind = iota
	kindSearch
	kindRaw
)

// get fetches u and returns the body. endpoint labels metrics and logs.
func (c *HTTPClient) get(ctx context.Context, kind callKind, endpoint, u string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, u, c.cacheTTL)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues("error").Inc()
			logging.Warn("cache_get_failed", map[string]any{"endpoint": endpoint, "error": err.Error()})
		case ok:
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return body, nil
		default:
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	limiter := c.core
	if kind == kindSearch {
		limiter = c.search
	}
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.execute(func() ([]byte, error) { return c.do(ctx, kind, endpoint, u) })
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, u, body); err != nil {
			logging.Warn("cache_put_failed", map[string]any{"endpoint": endpoint, "error": err.Error()})
		}
	}
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, kind callKind, endpoint, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if kind != kindRaw {
		c.auth(req)
	}
	var resp *http.Response
	if kind == kindSearch {
		// Search tiers fall back on their own; one attempt only.
		resp, err = c.httpClient.Do(req)
	} else {
		resp, err = c.doWithRetry(ctx, endpoint, req)
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, URL: u}
	}
	return io.ReadAll(resp.Body)
}

func (c *HTTPClient) doWithRetry(ctx context.Context, endpoint string, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.IncAPIRetry(endpoint)
		}
		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err == nil {
			retryable := resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)
			if !retryable || attempt == c.maxAttempts {
				return resp, nil
			}
			wait := retryAfter(resp.Header.Get("Retry-After"), backoff)
			_ = resp.Body.Close()
			logging.Debug("github_retry", map[string]any{"endpoint": endpoint, "status": resp.StatusCode, "attempt": attempt, "wait_ms": wait.Milliseconds()})
			select {
			case <-time.After(jitter(wait)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			continue
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		select {
		case <-time.After(jitter(backoff)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func retryAfter(ra string, def time.Duration) time.Duration {
	if ra == "" {
		return def
	}
	if secs, err := strconv.Atoi(ra); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return def
}

// jitter +/-20%
func jitter(wait time.Duration) time.Duration {
	j := time.Duration(float64(wait) * 0.2)
	if j <= 0 {
		return wait
	}
	return wait - j + time.Duration(time.Now().UnixNano()%int64(2*j))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
