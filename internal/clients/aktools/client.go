// Package aktools provides a client for an AKTools-compatible market-data
// HTTP service. Every upstream data function is exposed at
// /api/public/{function} and answers with a JSON array of records whose
// column order is significant.
package aktools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/fanwj03/YieldMapper/internal/common"
	"github.com/fanwj03/YieldMapper/internal/models"
)

const (
	DefaultBaseURL   = "http://127.0.0.1:8080"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements interfaces.MarketDataClient against an AKTools server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new AKTools client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// call performs a rate-limited GET for one data function and decodes the
// record array into an ordered table.
func (c *Client) call(ctx context.Context, function string, params url.Values) (*models.Table, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.UpstreamError{Function: function, Message: "rate limit wait", Err: err}
	}

	reqURL := fmt.Sprintf("%s/api/public/%s", c.baseURL, function)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &models.UpstreamError{Function: function, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debug().Err(err).Str("function", function).Dur("elapsed", elapsed).Msg("AKTools request failed")
		return nil, &models.UpstreamError{Function: function, Message: "failed to execute request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug().Str("function", function).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("AKTools non-OK response")
		return nil, &models.UpstreamError{Function: function, StatusCode: resp.StatusCode, Message: string(body)}
	}

	table, err := DecodeTable(resp.Body)
	if err != nil {
		return nil, &models.UpstreamError{Function: function, Message: "failed to decode response", Err: err}
	}

	c.logger.Debug().
		Str("function", function).
		Int("rows", table.Len()).
		Int("columns", len(table.Columns)).
		Dur("elapsed", elapsed).
		Msg("AKTools call")

	return table, nil
}
