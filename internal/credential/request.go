package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"
)

// StatusError is a non-2xx runtime config response.
type StatusError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("runtime config request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *StatusError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Fetch returns the runtime config. A successful result is cached for the
// life of the Client; failures are not, so the next call tries again.
// Concurrent callers share one in-flight request.
func (c *Client) Fetch(ctx context.Context) (RuntimeConfig, error) {
	c.mu.RLock()
	cached := c.cached
	c.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}

	v, err, shared := c.group.Do("runtime-config", func() (any, error) {
		body, err := c.doWithRetry(ctx)
		if err != nil {
			return nil, err
		}

		var cfg RuntimeConfig
		if err := json.Unmarshal(body, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal runtime config: %w", err)
		}

		c.mu.Lock()
		c.cached = &cfg
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return RuntimeConfig{}, err
	}
	if shared {
		c.logger.Debug("runtime config fetch shared")
	}
	return v.(RuntimeConfig), nil
}

// Reset drops the cached document.
func (c *Client) Reset() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

// doRequest performs one no-cache GET.
func (c *Client) doRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// doWithRetry performs the request with exponential backoff retry.
func (c *Client) doWithRetry(ctx context.Context) ([]byte, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// backoff * (0.5 to 1.5)
			jitter := backoff/2 + time.Duration(rand.Int64N(int64(backoff)+1))
			c.logger.Debug("retrying runtime config fetch",
				"attempt", attempt,
				"backoff", jitter,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(jitter):
			}

			backoff *= 2
		}

		body, err := c.doRequest(ctx)
		if err == nil {
			return body, nil
		}

		lastErr = err

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || !statusErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
