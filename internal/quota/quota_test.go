// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quota_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/quota"
)

type fakeStore struct {
	mu   sync.Mutex
	rows map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]int64)}
}

func key(date time.Time, provider string) string {
	return date.Format("2006-01-02") + "|" + provider
}

func (s *fakeStore) Get(_ context.Context, date time.Time, provider string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[key(date, provider)]
	return v, ok, nil
}

func (s *fakeStore) Add(_ context.Context, date time.Time, provider string, words, _ int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.rows[key(date, provider)] + words
	s.rows[key(date, provider)] = v
	return v, nil
}

func TestLedger_CanDownload_UnmeteredAlwaysTrue(t *testing.T) {
	ledger := quota.New(newFakeStore(), 100, nil)

	ok, err := ledger.CanDownload(context.Background(), quota.UnmeteredProvider)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_CanDownload_AbsentRow(t *testing.T) {
	ledger := quota.New(newFakeStore(), 100, nil)

	ok, err := ledger.CanDownload(context.Background(), "fanqie")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_Record_AndCanDownload(t *testing.T) {
	ledger := quota.New(newFakeStore(), 100, nil)
	ctx := context.Background()

	total, err := ledger.Record(ctx, "fanqie", 60)
	require.NoError(t, err)
	assert.Equal(t, int64(60), total)

	ok, err := ledger.CanDownload(ctx, "fanqie")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = ledger.Record(ctx, "fanqie", 40)
	require.NoError(t, err)

	ok, err = ledger.CanDownload(ctx, "fanqie")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedger_Record_UnmeteredNoOp(t *testing.T) {
	store := newFakeStore()
	ledger := quota.New(store, 100, nil)

	total, err := ledger.Record(context.Background(), quota.UnmeteredProvider, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, store.rows)
}

func TestLedger_GetUsage_ProviderOverride(t *testing.T) {
	ledger := quota.New(newFakeStore(), 100, map[string]int64{"qimao": 10})
	ctx := context.Background()

	_, err := ledger.Record(ctx, "qimao", 5)
	require.NoError(t, err)

	usage, err := ledger.GetUsage(ctx, "qimao")
	require.NoError(t, err)
	assert.Equal(t, int64(10), usage.Limit)
	assert.Equal(t, int64(5), usage.Downloaded)
	assert.Equal(t, int64(5), usage.Remaining)
	assert.InDelta(t, 50.0, usage.Percentage, 0.01)
}

func TestLedger_GetUsage_UnmeteredSentinel(t *testing.T) {
	ledger := quota.New(newFakeStore(), 100, nil)

	usage, err := ledger.GetUsage(context.Background(), quota.UnmeteredProvider)
	require.NoError(t, err)
	assert.Greater(t, usage.Remaining, int64(1<<60))
}

func TestLedger_SecondsUntilReset_Positive(t *testing.T) {
	ledger := quota.New(newFakeStore(), 100, nil)
	assert.Greater(t, ledger.SecondsUntilReset(), int64(0))
	assert.LessOrEqual(t, ledger.SecondsUntilReset(), int64(86400))
}
