// Package loader fetches sensor readings from the configured endpoint on
// behalf of the graph screen.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/YanFialkovitz/app-dados-sensores/internal/metrics"
	"github.com/YanFialkovitz/app-dados-sensores/internal/modules/graph/types"
)

// maxBodyBytes caps the response body. A var so tests can lower it.
var maxBodyBytes int64 = 16 << 20

const (
	maxErrorSnippet  = 512
	defaultUserAgent = "sensorgraph/dev"
)

// Client performs the authenticated GET against the sensor endpoint. It never
// retries; each Fetch is exactly one request.
type Client struct {
	endpoint  string
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the instrumented default client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.client = h }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for endpoint. A zero timeout leaves requests
// bounded only by the caller's context.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   timeout,
			Transport: InstrumentRoundTripperDuration(metrics.UpstreamRequestDuration, http.DefaultTransport),
		},
		userAgent: defaultUserAgent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch issues one GET with the bearer token and decodes the reading list.
// Context cancellation is returned unwrapped so callers can tell it apart
// from a failed load.
func (c *Client) Fetch(ctx context.Context, token string) ([]types.SensorReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("fetching sensor data", "endpoint", c.endpoint)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		c.logger.Debug("unexpected response code", "code", resp.StatusCode, "body", string(snippet))
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrUnauthorized
		case http.StatusNotFound:
			return nil, ErrNotFound
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBodyBytes)
	}

	readings, skipped, err := decodeReadings(body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.Warn("skipped malformed sensor readings",
			"endpoint", c.endpoint,
			"skipped", skipped,
			"accepted", len(readings),
		)
	}
	return readings, nil
}
