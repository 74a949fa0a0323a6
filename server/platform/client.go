package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const maxErrorBody = 64 << 10

func New(cfg Config, httpClient *http.Client) *Client {
	limit := rate.Inf
	if cfg.Every > 0 {
		limit = rate.Every(cfg.Every.Std())
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
	}
}

// Client talks to the auth, events and clubs services. Every call that has a session token
// attaches it as the session cookie the services expect.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

func (c *Client) CookieName() string {
	return c.cfg.CookieName
}

func endpoint(base string, parts ...string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSuffix(base, "/"))
	for _, part := range parts {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(part))
	}
	return sb.String()
}

func (c *Client) do(ctx context.Context, method string, url string, token string, body any, dst any) (*http.Response, error) {
	return c.doTry(ctx, method, url, token, body, dst, 0)
}

func (c *Client) doTry(ctx context.Context, method string, url string, token string, body any, dst any, try int) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = buf
	}

	rq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	rq.Header.Set("Accept", "application/json")
	if body != nil {
		rq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		rq.AddCookie(&http.Cookie{
			Name:  c.cfg.CookieName,
			Value: token,
		})
	}

	rs, err := c.httpClient.Do(rq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: failed to send request: %w", ErrNetwork, err)
	}
	defer rs.Body.Close()

	if rs.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(rs.Body, maxErrorBody))
		slog.DebugContext(ctx, "Service request failed",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("status_code", rs.StatusCode),
			slog.String("response", string(data)),
		)

		// only idempotent requests are retried, a retried join could count a user twice
		if isRetryable(rs.StatusCode) && isIdempotent(method) && try < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryDelay.Std()):
			}
			return c.doTry(ctx, method, url, token, body, dst, try+1)
		}

		return nil, newAPIError(method, url, rs.StatusCode, data)
	}

	data, err := io.ReadAll(rs.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}

	if dst == nil || len(bytes.TrimSpace(data)) == 0 {
		return rs, nil
	}

	if err = json.Unmarshal(data, dst); err != nil {
		slog.ErrorContext(ctx, "Failed to decode response", slog.String("url", url), slog.String("response", string(data)), slog.Any("err", err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return rs, nil
}

func isRetryable(statusCode int) bool {
	return statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout
}

func isIdempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodPut || method == http.MethodDelete
}

// IsGone reports whether err means the entity no longer exists.
func IsGone(err error) bool {
	return errors.Is(err, ErrNotFound)
}
