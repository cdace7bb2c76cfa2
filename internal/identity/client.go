// Package identity implements the outbound client for the resident
// identity service. It answers one question: does a NIK exist upstream.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wargakita/event-service/internal/domain/events"
	"github.com/wargakita/event-service/internal/metrics"
)

const (
	// DefaultTimeout bounds each lookup so a stalled upstream maps to
	// an unavailable outcome instead of blocking the registration.
	DefaultTimeout = 5 * time.Second
	// DefaultRateLimit is the outbound requests-per-second ceiling
	DefaultRateLimit = rate.Limit(50)
)

// Client handles communication with the identity service.
//
// Every call re-queries upstream; there is no cache. That keeps
// existence answers fresh at the cost of one upstream round trip per
// registration, which is the documented trade-off.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

var _ events.IdentityVerifier = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates an identity service client.
// baseURL should be the service root (e.g. "http://identity:8081").
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(DefaultRateLimit, 1),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// envelope is the upstream response wrapper. Unknown fields are
// ignored; a successful response without data is a logical not-found.
type envelope struct {
	ResponseCode string    `json:"responseCode"`
	ResponseDesc string    `json:"responseDesc"`
	Data         *resident `json:"data"`
}

type resident struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	NIK   string `json:"nik"`
	Phone string `json:"phone"`
}

// Exists reports whether the NIK is known to the identity service.
// Upstream outcomes map onto the domain taxonomy:
//
//	404                  -> (false, nil)
//	409                  -> events.ErrIdentityConflict
//	2xx without payload  -> (false, nil)
//	anything else        -> events.ErrIdentityUnavailable
//
// No retries happen here; retry policy belongs to the caller's
// deployment, not the registration path.
func (c *Client) Exists(ctx context.Context, nik string) (bool, error) {
	start := time.Now()
	found, err := c.lookup(ctx, nik)
	metrics.IdentityLookupDuration.Observe(time.Since(start).Seconds())
	metrics.IdentityLookupsTotal.WithLabelValues(lookupOutcome(found, err)).Inc()
	return found, err
}

func (c *Client) lookup(ctx context.Context, nik string) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: rate limiter: %v", events.ErrIdentityUnavailable, err)
	}

	requestURL := fmt.Sprintf("%s/warga/by-nik/%s", c.baseURL, url.PathEscape(nik))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", events.ErrIdentityUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusConflict:
		return false, fmt.Errorf("%w: upstream 409", events.ErrIdentityConflict)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return false, fmt.Errorf("%w: upstream status %d", events.ErrIdentityUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: read response: %v", events.ErrIdentityUnavailable, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false, fmt.Errorf("%w: parse response: %v", events.ErrIdentityUnavailable, err)
	}

	return env.Data != nil, nil
}

func lookupOutcome(found bool, err error) string {
	switch {
	case err == nil && found:
		return "found"
	case err == nil:
		return "not_found"
	case errors.Is(err, events.ErrIdentityConflict):
		return "conflict"
	default:
		return "unavailable"
	}
}
