// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"errors"
	"fmt"
	"time"
)

// NetworkError wraps a transport-level failure (connection refused, DNS,
// TLS). Retryable.
type NetworkError struct {
	Provider string
	Cause    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("source: %s: network error: %v", e.Provider, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// InvalidResponseError indicates the upstream returned a response this
// client could not parse into the expected shape. Retryable.
type InvalidResponseError struct {
	Provider string
	Reason   string
}

func (e *InvalidResponseError) Error() string {
	return fmt.Sprintf("source: %s: invalid response: %s", e.Provider, e.Reason)
}

// RateLimitError indicates the upstream is throttling this client.
// Retryable after RetryAfter, or the default exponential delay if zero.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("source: %s: rate limited, retry after %s", e.Provider, e.RetryAfter)
}

// QuotaExceededError indicates the provider's daily word quota has been
// exhausted. Non-retryable at chapter scope; see the quota ledger.
type QuotaExceededError struct {
	Provider string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("source: %s: quota exceeded", e.Provider)
}

// BookNotFoundError is terminal for the given book.
type BookNotFoundError struct {
	Provider       string
	ProviderBookID string
}

func (e *BookNotFoundError) Error() string {
	return fmt.Sprintf("source: %s: book %s not found", e.Provider, e.ProviderBookID)
}

// ChapterNotFoundError is terminal for the given chapter.
type ChapterNotFoundError struct {
	Provider string
	ItemID   string
}

func (e *ChapterNotFoundError) Error() string {
	return fmt.Sprintf("source: %s: chapter %s not found", e.Provider, e.ItemID)
}

// Retryable reports whether err should be retried by the client's internal
// retry policy.
func Retryable(err error) bool {
	var networkErr *NetworkError
	var invalidErr *InvalidResponseError
	var rateLimitErr *RateLimitError
	switch {
	case errors.As(err, &networkErr):
		return true
	case errors.As(err, &invalidErr):
		return true
	case errors.As(err, &rateLimitErr):
		return true
	default:
		return false
	}
}

// RetryAfter extracts the advised delay from a [RateLimitError], or zero if
// err is not one (callers fall back to exponential backoff in that case).
func RetryAfter(err error) time.Duration {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.RetryAfter
	}
	return 0
}
