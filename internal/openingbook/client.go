// Package openingbook queries a chessdb-compatible opening book with the
// coordinate-flavor position string.
package openingbook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var (
	ErrInvalidPosition = errors.New("opening book rejected the position")
	ErrMalformedAnswer = errors.New("malformed opening book answer")
)

type Client struct {
	baseURL string
	http    *fasthttp.Client
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

// WithRetry sets the number of attempts for 5xx answers and transport errors.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimSpace(baseURL),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		logger:         zap.NewNop(),
		defaultTimeout: 5 * time.Second,
		retryMax:       2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryAll lists the book moves for position.
func (c *Client) QueryAll(ctx context.Context, position string) ([]Entry, error) {
	body, err := c.get(ctx, "queryall", position)
	if err != nil {
		return nil, err
	}
	entries, err := ParseQueryAll(body)
	c.logger.Debug("openingbook_query", zap.String("action", "queryall"), zap.Int("entries", len(entries)), zap.Error(err))
	return entries, err
}

// QueryScore returns the book evaluation of position from the side to move.
func (c *Client) QueryScore(ctx context.Context, position string) (int, bool, error) {
	body, err := c.get(ctx, "queryscore", position)
	if err != nil {
		return 0, false, err
	}
	return ParseQueryScore(body)
}

func (c *Client) requestURI(action, position string) string {
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + "action=" + action + "&board=" + url.QueryEscape(position)
}

func (c *Client) get(ctx context.Context, action, position string) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.requestURI(action, position))

	attempts := c.retryMax
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err == nil {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return string(resp.Body()), nil
			}
			err = fmt.Errorf("opening book status=%d body=%s", status, truncate(string(resp.Body()), 256))
			if !shouldRetryStatus(status) {
				return "", err
			}
		} else {
			err = fmt.Errorf("opening book request: %w", err)
		}
		lastErr = err
		c.logger.Warn("openingbook_retry", zap.String("action", action), zap.Int("attempt", attempt), zap.Error(err))
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
