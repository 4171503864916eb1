// Package mhwdb fetches raw resources from the Monster Hunter World reference database.
package mhwdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/palico-bot/internal/mhw"
)

const (
	DefaultBaseURL = "https://mhw-db.com"

	rateLimitDelay = 250 * time.Millisecond
	requestTimeout = 60 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Client is a rate limited reference database client.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	userAgent   string
	backoff     time.Duration
}

// Options configures a Client.
type Options struct {
	// BaseURL of the API. Default: DefaultBaseURL.
	BaseURL string

	// Timeout for a single request. Default: 60s.
	Timeout time.Duration

	// RequestsPerSecond caps outgoing requests. Default: 4.
	RequestsPerSecond float64

	// HTTPClient allows a custom HTTP client.
	HTTPClient *http.Client

	// UserAgent sent with every request.
	UserAgent string
}

// NewClient creates a new client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = requestTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "palico-bot/1.0"
	}

	limit := rate.Every(rateLimitDelay)
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(limit, 1),
		userAgent:   opts.UserAgent,
		backoff:     initialBackoff,
	}
}

// ResourceURL returns the endpoint URL for a resource kind.
func (c *Client) ResourceURL(kind mhw.ResourceKind) string {
	return fmt.Sprintf("%s/%s", c.baseURL, kind)
}

// FetchResource downloads the full JSON array for a resource kind.
// The payload is validated to be a JSON array and returned unmodified.
func (c *Client) FetchResource(ctx context.Context, kind mhw.ResourceKind) ([]byte, error) {
	url := c.ResourceURL(kind)

	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", kind, err)
	}

	var probe []json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%s response is not a JSON array: %w", kind, err)
	}

	return body, nil
}

// doRequest performs a GET with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, fmt.Errorf("failed to read response body: %w", readErr)
			}
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			if d := retryAfter(resp.Header.Get("Retry-After")); d > backoff {
				backoff = d
			}

		case resp.StatusCode == http.StatusNotFound:
			return nil, &NotFoundError{URL: url}

		case resp.StatusCode >= 500:
			lastErr = &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}

		default:
			var apiErr APIError
			if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
				apiErr.Status = resp.StatusCode
				return nil, &apiErr
			}
			return nil, &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
