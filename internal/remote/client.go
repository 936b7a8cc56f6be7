package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Retry and backoff constants.
const (
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
	userAgent      = "lifegoal-go/0.1"
	restPrefix     = "/rest/v1/"
)

// Client is an HTTP client for the backend's REST endpoint.
// It handles request construction, authentication, retry with
// exponential backoff, rate limiting, and error classification.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger

	// sleepFunc is called to wait between retries. Tests override it to
	// avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the project at baseURL (for example
// "https://abc.supabase.co"). apiKey is the project's public key, sent on
// every request. tokens supplies the signed-in user's access token; when nil
// the api key doubles as the bearer token.
func NewClient(baseURL, apiKey string, tokens oauth2.TokenSource, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		sleepFunc:  timeSleep,
	}
}

// SetRateLimit caps outgoing requests per second. Zero or negative removes
// the cap. Burst is twice the rate so short idle gaps can be spent.
func (c *Client) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		c.limiter = nil
		return
	}

	const burstMultiplier = 2

	burst := max(int(perSecond*burstMultiplier), 1)
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Do executes a request against table with the given filters. body, when
// non-nil, is sent as JSON and resent unchanged on every retry. prefer sets
// the Prefer header. The caller closes the response body on success.
func (c *Client) Do(ctx context.Context, method, table string, query url.Values, body []byte, prefer string) (*http.Response, error) {
	target := c.baseURL + restPrefix + table
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var attempt int
	for {
		if err := c.wait(ctx); err != nil {
			return nil, fmt.Errorf("remote: request canceled: %w", err)
		}

		resp, err := c.doOnce(ctx, method, target, body, prefer)
		if err != nil {
			// Context cancellation is not retryable.
			if ctx.Err() != nil {
				return nil, fmt.Errorf("remote: request canceled: %w", ctx.Err())
			}

			// Network errors are retryable.
			if attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("table", table),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("remote: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return nil, fmt.Errorf("remote: %s %s failed after %d retries: %w", method, table, maxRetries, err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("table", table),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("table", table),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("remote: request canceled: %w", err)
			}

			attempt++

			continue
		}

		if attempt > 0 {
			c.logger.Error("request failed after retries",
				slog.String("method", method),
				slog.String("table", table),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempts", attempt+1),
			)
		}

		return nil, newAPIError(resp.StatusCode, errBody)
	}
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}

	return c.limiter.Wait(ctx)
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, method, target string, body []byte, prefer string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("obtaining token: %w", err)
		}

		tok.SetAuthHeader(req)
	} else if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	return c.httpClient.Do(req)
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 and 503 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
