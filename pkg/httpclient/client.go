// Package httpclient is the HTTP client used for Xtream panels, playlists
// and segments. On top of http.Client it adds retries with exponential
// backoff, a circuit breaker, transparent gzip/deflate/brotli decoding and
// a cap on decoded body size.
//
// Panel URLs carry account credentials in their path and query, so the
// client only ever logs the origin (scheme and host) of a request.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrCircuitOpen      = errors.New("circuit breaker is open")
	ErrMaxRetries       = errors.New("max retries exceeded")
	ErrResponseTooLarge = errors.New("response body exceeds maximum size limit")
)

const (
	DefaultTimeout              = 30 * time.Second
	DefaultRetryAttempts        = 2
	DefaultRetryDelay           = 500 * time.Millisecond
	DefaultRetryMaxDelay        = 10 * time.Second
	DefaultBackoffMultiplier    = 2.0
	DefaultCircuitThreshold     = 5
	DefaultCircuitTimeout       = 30 * time.Second
	DefaultCircuitHalfOpenMax   = 1
	DefaultAcceptEncodingHeader = "gzip, deflate, br"
)

const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderUserAgent       = "User-Agent"

	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingBrotli  = "br"
)

// Config configures a Client. The zero value sends each request once with
// no timeout and no breaker. Unless EnableDecompression is set, no
// Accept-Encoding is advertised and bodies are relayed as the origin sent
// them, which suits media transfers.
type Config struct {
	// Timeout bounds a whole request including the body read. Zero means
	// none.
	Timeout time.Duration

	// RetryAttempts is the number of retries after the first attempt.
	RetryAttempts     int
	RetryDelay        time.Duration
	RetryMaxDelay     time.Duration
	BackoffMultiplier float64

	// CircuitThreshold is the number of consecutive failures that opens
	// the breaker. Zero disables it.
	CircuitThreshold   int
	CircuitTimeout     time.Duration
	CircuitHalfOpenMax int

	// UserAgent is sent when a request sets none.
	UserAgent string
	Logger    *slog.Logger

	// EnableDecompression advertises and decodes compressed bodies. When
	// false, the transport built for a nil BaseClient also stops asking for
	// gzip on its own.
	EnableDecompression bool

	// MaxResponseSize caps the decoded body. Zero means no cap.
	MaxResponseSize int64

	// BaseClient performs the requests. Nil builds one from Timeout.
	BaseClient *http.Client
}

// DefaultConfig is the configuration for panel API calls.
func DefaultConfig() Config {
	return Config{
		Timeout:             DefaultTimeout,
		RetryAttempts:       DefaultRetryAttempts,
		RetryDelay:          DefaultRetryDelay,
		RetryMaxDelay:       DefaultRetryMaxDelay,
		BackoffMultiplier:   DefaultBackoffMultiplier,
		CircuitThreshold:    DefaultCircuitThreshold,
		CircuitTimeout:      DefaultCircuitTimeout,
		CircuitHalfOpenMax:  DefaultCircuitHalfOpenMax,
		Logger:              slog.Default(),
		EnableDecompression: true,
	}
}

// Client sends requests according to its Config. It is safe for
// concurrent use.
type Client struct {
	config  Config
	client  *http.Client
	breaker *CircuitBreaker
	logger  *slog.Logger
}

// New builds a client from cfg.
func New(cfg Config) *Client {
	c := &Client{config: cfg, client: cfg.BaseClient, logger: cfg.Logger}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.config.BackoffMultiplier <= 0 {
		c.config.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DisableCompression = !cfg.EnableDecompression
		c.client = &http.Client{Timeout: cfg.Timeout, Transport: transport}
	}
	if cfg.CircuitThreshold > 0 {
		c.breaker = NewCircuitBreaker(cfg.CircuitThreshold, cfg.CircuitTimeout, cfg.CircuitHalfOpenMax)
	}
	return c
}

// NewWithDefaults is New(DefaultConfig()).
func NewWithDefaults() *Client {
	return New(DefaultConfig())
}

// Do sends req using its own context.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.DoWithContext(req.Context(), req)
}

// DoWithContext sends req, retrying transport errors and 429/502/503/504
// while attempts remain. When attempts run out on a retryable status, that
// response is returned as is.
func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" && req.Header.Get(HeaderUserAgent) == "" {
		req.Header.Set(HeaderUserAgent, c.config.UserAgent)
	}
	if c.config.EnableDecompression && req.Header.Get(HeaderAcceptEncoding) == "" {
		req.Header.Set(HeaderAcceptEncoding, DefaultAcceptEncodingHeader)
	}
	origin := originOf(req.URL)

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt)
			c.logger.Debug("retrying upstream request",
				slog.String("origin", origin),
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait),
			)
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		resp, retry, err := c.attempt(ctx, req, origin, attempt == c.config.RetryAttempts)
		if !retry {
			return resp, err
		}
		lastErr = err
	}

	if c.config.RetryAttempts == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: %w", ErrMaxRetries, lastErr)
}

// attempt sends req once. retry reports whether another attempt may
// succeed; err is then the reason for the failure.
func (c *Client) attempt(ctx context.Context, req *http.Request, origin string, last bool) (resp *http.Response, retry bool, err error) {
	if c.breaker != nil && !c.breaker.Allow() {
		c.logger.Warn("upstream circuit open, request skipped",
			slog.String("origin", origin),
			slog.String("state", c.breaker.State().String()),
		)
		return nil, true, ErrCircuitOpen
	}

	start := time.Now()
	resp, err = c.client.Do(req.WithContext(ctx))
	elapsed := time.Since(start)

	if err != nil {
		c.recordFailure()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		c.logger.Warn("upstream request failed",
			slog.String("origin", origin),
			slog.String("method", req.Method),
			slog.Duration("elapsed", elapsed),
			slog.String("error", withoutURL(err).Error()),
		)
		return nil, true, err
	}

	if isRetryableStatus(resp.StatusCode) && !last {
		c.recordFailure()
		_ = resp.Body.Close()
		c.logger.Warn("upstream returned retryable status",
			slog.String("origin", origin),
			slog.Int("status", resp.StatusCode),
		)
		return nil, true, fmt.Errorf("retryable status code: %d", resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.recordFailure()
	} else {
		c.recordSuccess()
	}
	c.logger.Debug("upstream request completed",
		slog.String("origin", origin),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", elapsed),
	)

	if c.config.EnableDecompression {
		c.decode(resp)
	}
	if c.config.MaxResponseSize > 0 {
		resp.Body = &cappedBody{ReadCloser: resp.Body, remaining: c.config.MaxResponseSize}
	}
	return resp, false, nil
}

// backoff is the wait before retry n (n >= 1).
func (c *Client) backoff(n int) time.Duration {
	d := time.Duration(float64(c.config.RetryDelay) * math.Pow(c.config.BackoffMultiplier, float64(n-1)))
	if c.config.RetryMaxDelay > 0 && d > c.config.RetryMaxDelay {
		d = c.config.RetryMaxDelay
	}
	return d
}

// Get sends a GET for rawURL.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.Do(req)
}

// CircuitState reports the breaker state. A disabled breaker is always
// closed.
func (c *Client) CircuitState() CircuitState {
	if c.breaker == nil {
		return CircuitClosed
	}
	return c.breaker.State()
}

// StandardClient adapts c to libraries that take an *http.Client.
func (c *Client) StandardClient() *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(c.Do),
		Timeout:   c.config.Timeout,
	}
}

func (c *Client) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

func (c *Client) recordSuccess() {
	if c.breaker != nil {
		c.breaker.RecordSuccess()
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func originOf(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// withoutURL drops the request URL that net/http puts in transport errors.
func withoutURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
