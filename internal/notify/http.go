package notify

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/manav03panchal/waketime/internal/config"
	"github.com/manav03panchal/waketime/internal/errors"
)

// userAgent identifies webhook requests.
const userAgent = "waketime-webhook/1.0"

// HTTPClient posts webhook payloads, retrying on rate limits, server
// errors and transport failures.
type HTTPClient struct {
	rest *resty.Client
}

// NewHTTPClient creates a client from the http config section.
func NewHTTPClient(cfg config.HTTPConfig) *HTTPClient {
	r := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetHeader("User-Agent", userAgent).
		AddRetryCondition(shouldRetry)
	if cfg.RetryWait > 0 {
		r.SetRetryWaitTime(cfg.RetryWait)
	}
	if cfg.RetryMaxWait > 0 {
		r.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	}
	return &HTTPClient{rest: r}
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

// Send posts body to url.
func (c *HTTPClient) Send(ctx context.Context, url, contentType string, body []byte) *SendResult {
	start := time.Now()
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Post(url)

	result := &SendResult{Duration: time.Since(start), Attempts: 1}
	if resp != nil {
		result.StatusCode = resp.StatusCode()
		if resp.Request != nil && resp.Request.Attempt > 0 {
			result.Attempts = resp.Request.Attempt
		}
	}

	switch {
	case err != nil:
		result.Error = c.exhausted("webhook request failed", stderrors.Join(errors.ErrNetworkUnavailable, err), result.Attempts)
	case resp.StatusCode() == http.StatusTooManyRequests:
		result.Error = c.exhausted("rate limited (HTTP 429)", nil, result.Attempts)
	case resp.StatusCode() >= http.StatusInternalServerError:
		result.Error = c.exhausted(
			fmt.Sprintf("server error (HTTP %d): %s", resp.StatusCode(), truncate(resp.String(), 200)), nil, result.Attempts)
	case resp.IsError():
		result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	return result
}

// exhausted reports a retryable failure that used up its retries.
func (c *HTTPClient) exhausted(msg string, cause error, attempts int) error {
	return errors.NewRecoverableError(msg, cause).After(attempts, c.rest.RetryCount+1)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
