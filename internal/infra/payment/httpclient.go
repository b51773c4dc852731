package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"studyplan-subscription/internal/config"
)

// RetryClient posts provider requests with a bounded connect/read timeout and
// retries transient network failures with exponential backoff. Provider
// business errors and malformed responses are never retried; that
// classification belongs to the gateways.
type RetryClient struct {
	client      *http.Client
	attempts    int
	backoffBase time.Duration
	log         *zerolog.Logger
}

func NewRetryClient(cfg config.RetryConfig, logger *zerolog.Logger) *RetryClient {
	l := logger.With().Str("component", "RetryClient").Logger()
	return &RetryClient{
		client: &http.Client{
			Timeout: cfg.ReadTimeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
				TLSHandshakeTimeout: cfg.ConnectTimeout,
			},
			// Providers answer checkout posts with redirects we must read
			// ourselves, never follow.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		attempts:    cfg.Attempts,
		backoffBase: cfg.BackoffBase,
		log:         &l,
	}
}

func (c *RetryClient) Post(ctx context.Context, url, contentType string, body []byte, header http.Header) (*http.Response, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		copyHeader(req, header)
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
}

func (c *RetryClient) Get(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	return c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		copyHeader(req, header)
		return req, nil
	})
}

// do rebuilds the request on every attempt so bodies are replayed from
// scratch. Backoff doubles per attempt (base, 2*base, 4*base, ...) and honors
// context cancellation; the last error surfaces after the attempt ceiling.
func (c *RetryClient) do(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !transient(err) {
			return nil, err
		}
		if attempt == c.attempts {
			break
		}
		wait := c.backoffBase << uint(attempt)
		c.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", c.attempts).
			Dur("retry_in", wait).
			Msg("provider request failed, retrying")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	c.log.Error().Err(lastErr).Int("attempts", c.attempts).Msg("provider request failed after all attempts")
	return nil, fmt.Errorf("request failed after %d attempts: %w", c.attempts, lastErr)
}

// transient reports whether the failure is worth retrying: timeouts and
// refused/reset connections. Anything else (DNS misconfiguration, TLS
// failures, context cancellation) surfaces immediately.
func transient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	return false
}

func copyHeader(req *http.Request, header http.Header) {
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
}
