// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

// retryingClient is the shared HTTP transport every provider client embeds.
// It applies the §4.3 client-internal retry policy (up to N attempts,
// exponential backoff starting at 0.5s, doubling each attempt, honoring an
// advised Retry-After) uniformly across providers.
type retryingClient struct {
	provider   string
	httpClient *http.Client
	maxRetries uint
}

func newRetryingClient(provider string, timeout time.Duration, maxRetries int) *retryingClient {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &retryingClient{
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: uint(maxRetries),
	}
}

// getJSON performs a GET request against rawURL with query, decoding the
// JSON body into out. Transport and HTTP-level failures are classified into
// the §4.3 error taxonomy and retried per policy.
func (c *retryingClient) getJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if query != nil {
				req.URL.RawQuery = query.Encode()
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return &NetworkError{Provider: c.provider, Cause: err}
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests {
				return &RateLimitError{Provider: c.provider, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
			}
			if resp.StatusCode >= 500 {
				return &InvalidResponseError{Provider: c.provider, Reason: fmt.Sprintf("upstream status %d", resp.StatusCode)}
			}
			if resp.StatusCode >= 400 {
				return retry.Unrecoverable(&InvalidResponseError{Provider: c.provider, Reason: fmt.Sprintf("upstream status %d", resp.StatusCode)})
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return &NetworkError{Provider: c.provider, Cause: err}
			}
			if err := json.Unmarshal(body, out); err != nil {
				return &InvalidResponseError{Provider: c.provider, Reason: "malformed JSON body"}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(Retryable),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			if wait := RetryAfter(err); wait > 0 {
				return wait
			}
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

// parseRetryAfter interprets a Retry-After header as seconds, defaulting
// to zero (caller falls back to exponential backoff) when absent or
// malformed.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
