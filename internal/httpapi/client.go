// Package httpapi implements the HTTP Client contract of spec.md §4.A:
// Fetch/FetchJSON with per-endpoint-class pacing, bounded retry with
// exponential backoff, and response classification. One Client instance is
// constructed per upstream host, mirroring the teacher's per-provider
// http.Client wrapping in internal/net/client.Wrapper.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/sawpanic/keirin-ingest/internal/circuit"
	"github.com/sawpanic/keirin-ingest/internal/metrics"
	"github.com/sawpanic/keirin-ingest/internal/ratelimit"
)

// Config describes one host's client posture.
type Config struct {
	Host            string
	UserAgent       string
	Accept          string
	Referer         string
	Origin          string
	RequestTimeout  time.Duration
	RetryCount      int     // N in spec.md §4.A, default 3
	BackoffBase     float64 // default 2
	BackoffMaxDelay time.Duration // default 60s
}

// DefaultConfig fills in spec.md §4.A's documented defaults.
func DefaultConfig(host string) Config {
	return Config{
		Host:            host,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Accept:          "application/json, text/html;q=0.9, */*;q=0.8",
		RequestTimeout:  30 * time.Second,
		RetryCount:      3,
		BackoffBase:     2,
		BackoffMaxDelay: 60 * time.Second,
	}
}

// Client is one upstream host's HTTP client: fixed headers, a shared
// connection pool, per-endpoint-class pacing, and a per-endpoint ApiBackoff.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *ratelimit.Limiter
	breakers *circuit.Manager
	rng      *rand.Rand
	metrics  *metrics.Metrics
}

// NewClient builds a Client. limiter must already have intervals configured
// for the endpoint classes this client will be asked to Fetch.
func NewClient(cfg Config, limiter *ratelimit.Limiter) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		limiter:  limiter,
		breakers: circuit.NewManager(circuit.DefaultConfig()),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetMetrics attaches a metrics collector; Fetch records a retry count on
// it once set. Leaving it unset (the default in tests) disables recording.
func (c *Client) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

// backoffDelay computes the attempt-k (1-based) backoff of spec.md §4.A:
// base^k seconds ±10% jitter, clamped to maxDelay.
func (c *Client) backoffDelay(attempt int) time.Duration {
	seconds := math.Pow(c.cfg.BackoffBase, float64(attempt))
	d := time.Duration(seconds * float64(time.Second))
	if d > c.cfg.BackoffMaxDelay {
		d = c.cfg.BackoffMaxDelay
	}
	jitter := (c.rng.Float64()*2 - 1) * 0.10 * float64(d)
	d += time.Duration(jitter)
	if d < 0 {
		d = 0
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// response is one completed HTTP round trip, classified but not yet acted
// on by the retry loop.
type response struct {
	body       []byte
	status     int
	retryAfter time.Duration // only meaningful when status == 429
}

// Fetch issues a GET to url, pacing on endpointClass, retrying transient
// failures with backoff, and classifying the response per spec.md §4.A.
// Cancellation is checked between retry attempts (spec.md §5).
func (c *Client) Fetch(ctx context.Context, url, endpointClass string) ([]byte, error) {
	breaker := c.breakers.Get(endpointClass)
	if !breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryCount; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if attempt > 1 && c.metrics != nil {
			c.metrics.HTTPRetriesTotal.WithLabelValues(endpointClass).Inc()
		}
		if err := c.limiter.Wait(ctx, endpointClass); err != nil {
			return nil, err
		}

		resp, err := c.doOnce(ctx, url)
		if err != nil {
			breaker.RecordFailure()
			lastErr = err
			if attempt == c.cfg.RetryCount {
				return nil, lastErr
			}
			if err := sleepCtx(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.status >= 200 && resp.status < 300:
			breaker.RecordSuccess()
			return resp.body, nil

		case resp.status == http.StatusNotFound:
			return nil, ErrNotYetPublished

		case resp.status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("httpapi: rate limited (429)")
			if attempt == c.cfg.RetryCount {
				return nil, lastErr
			}
			if err := sleepCtx(ctx, resp.retryAfter); err != nil {
				return nil, err
			}
			continue

		case resp.status >= 500:
			breaker.RecordFailure()
			lastErr = fmt.Errorf("httpapi: upstream status %d", resp.status)
			if attempt == c.cfg.RetryCount {
				return nil, lastErr
			}
			if err := sleepCtx(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
			continue

		default:
			return nil, fmt.Errorf("%w: status %d", ErrPermanentFailure, resp.status)
		}
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, url string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return response{}, fmt.Errorf("httpapi: build request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Accept != "" {
		req.Header.Set("Accept", c.cfg.Accept)
	}
	if c.cfg.Referer != "" {
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Origin != "" {
		req.Header.Set("Origin", c.cfg.Origin)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("httpapi: request %s: %w", url, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("httpapi: read body: %w", err)
	}

	r := response{body: body, status: httpResp.StatusCode}
	if r.status == http.StatusTooManyRequests {
		r.retryAfter = 60 * time.Second
		if ra := httpResp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				r.retryAfter = time.Duration(secs) * time.Second
			}
		}
	}
	return r, nil
}

// FetchJSON fetches url and decodes the body as JSON into out. A decode
// failure is surfaced as ErrParseError and is not retried, per spec.md §4.A.
func (c *Client) FetchJSON(ctx context.Context, url, endpointClass string, out interface{}) error {
	body, err := c.Fetch(ctx, url, endpointClass)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrParseError, err)
	}
	return nil
}
