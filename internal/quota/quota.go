// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package quota is the daily per-provider word-download ledger (C4). One row
per (date, provider); a single atomic `UPDATE ... SET words_downloaded =
words_downloaded + $1` keeps concurrent workers from needing a held lock
across the read-modify-write, accepting the documented at-most-one-chapter
overshoot per worker in exchange.
*/
package quota

import (
	"context"
	"time"
)

// UnmeteredProvider never blocks and is reported with a sentinel large
// remaining balance regardless of how much it has downloaded.
const UnmeteredProvider = "biquge"

// Usage is the response shape of [Ledger.GetUsage].
type Usage struct {
	Date       time.Time `json:"date"`
	Provider   string    `json:"provider"`
	Downloaded int64     `json:"downloaded"`
	Limit      int64     `json:"limit"`
	Remaining  int64     `json:"remaining"`
	Percentage float64   `json:"percentage"`
}

// Store persists per-(date, provider) word counters.
type Store interface {
	// Get returns the downloaded word count for provider on date, and
	// whether a row exists at all.
	Get(ctx context.Context, date time.Time, provider string) (downloaded int64, ok bool, err error)

	// Add atomically upserts the row for (date, provider) and adds words to
	// its downloaded counter, returning the new total.
	Add(ctx context.Context, date time.Time, provider string, words int64, limit int64) (int64, error)
}

// Ledger is the C4 quota service.
type Ledger struct {
	store         Store
	defaultLimit  int64
	providerLimit map[string]int64
	now           func() time.Time
}

// New constructs a [Ledger]. defaultLimit applies to any metered provider
// without an explicit override in providerLimits.
func New(store Store, defaultLimit int64, providerLimits map[string]int64) *Ledger {
	if providerLimits == nil {
		providerLimits = map[string]int64{}
	}
	return &Ledger{
		store:         store,
		defaultLimit:  defaultLimit,
		providerLimit: providerLimits,
		now:           time.Now,
	}
}

// CanDownload reports whether provider has room for at least one more word
// today: true for an unmetered provider, an absent row, or
// words_downloaded < limit.
func (l *Ledger) CanDownload(ctx context.Context, provider string) (bool, error) {
	if provider == UnmeteredProvider {
		return true, nil
	}

	downloaded, ok, err := l.store.Get(ctx, today(l.now()), provider)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	return downloaded < l.limitFor(provider), nil
}

// Record adds words to provider's counter for today and returns the new
// total. Unmetered providers record nothing and always return 0.
func (l *Ledger) Record(ctx context.Context, provider string, words int64) (int64, error) {
	if provider == UnmeteredProvider || words <= 0 {
		return 0, nil
	}
	return l.store.Add(ctx, today(l.now()), provider, words, l.limitFor(provider))
}

// GetUsage reports today's usage snapshot for provider.
func (l *Ledger) GetUsage(ctx context.Context, provider string) (*Usage, error) {
	date := today(l.now())

	if provider == UnmeteredProvider {
		return &Usage{
			Date:       date,
			Provider:   provider,
			Downloaded: 0,
			Limit:      unmeteredSentinel,
			Remaining:  unmeteredSentinel,
			Percentage: 0,
		}, nil
	}

	downloaded, _, err := l.store.Get(ctx, date, provider)
	if err != nil {
		return nil, err
	}

	limit := l.limitFor(provider)
	remaining := limit - downloaded
	if remaining < 0 {
		remaining = 0
	}

	percentage := float64(0)
	if limit > 0 {
		percentage = float64(downloaded) / float64(limit) * 100
	}

	return &Usage{
		Date:       date,
		Provider:   provider,
		Downloaded: downloaded,
		Limit:      limit,
		Remaining:  remaining,
		Percentage: percentage,
	}, nil
}

// SecondsUntilReset returns the number of seconds until the next local
// midnight, when today's counters stop applying.
func (l *Ledger) SecondsUntilReset() int64 {
	now := l.now()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return int64(nextMidnight.Sub(now).Seconds())
}

func (l *Ledger) limitFor(provider string) int64 {
	if limit, ok := l.providerLimit[provider]; ok {
		return limit
	}
	return l.defaultLimit
}

// unmeteredSentinel is reported as the limit/remaining balance of an
// unmetered provider, per §4.4's "reported as a sentinel large number".
const unmeteredSentinel = 1 << 62

func today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
