// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/source"
)

func TestFanqieClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("type"))
		assert.Equal(t, "dragon", r.URL.Query().Get("keywords"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"books":[{"book_id":"123","book_name":"Dragon King","author":"A","cover_url":"https://img.example.com/a/b~300x400.jpg?x=1","word_count":1000,"creation_status":"ongoing"}]}`))
	}))
	defer server.Close()

	client := source.NewFanqieClient("test-key", server.URL, time.Second, 3)
	result, err := client.Search(context.Background(), "dragon", 1)

	require.NoError(t, err)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "123", result.Books[0].ProviderBookID)
	assert.Equal(t, "https://p6-novel.byteimg.com/origin/a/b", result.Books[0].CoverURL)
}

func TestFanqieClient_GetBookDetail_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := source.NewFanqieClient("test-key", server.URL, time.Second, 1)
	_, err := client.GetBookDetail(context.Background(), "missing")

	require.Error(t, err)
	var notFound *source.BookNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFanqieClient_RetriesOnServerError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"book_name":"Recovered","author":"B"}`))
	}))
	defer server.Close()

	client := source.NewFanqieClient("test-key", server.URL, time.Second, 5)
	detail, err := client.GetBookDetail(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "Recovered", detail.Title)
	assert.Equal(t, 3, attempts)
}

func TestFanqieClient_RateLimitHonorsRetryAfter(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"book_name":"Got It","author":"B"}`))
	}))
	defer server.Close()

	client := source.NewFanqieClient("test-key", server.URL, time.Second, 3)
	detail, err := client.GetBookDetail(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "Got It", detail.Title)
}

func TestFanqieClient_UnrecoverableOnClientError(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := source.NewFanqieClient("test-key", server.URL, time.Second, 5)
	_, err := client.GetBookDetail(context.Background(), "1")

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestQimaoClient_Search_PageOffset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "wd value", r.URL.Query().Get("wd"))
		assert.Equal(t, "10", r.URL.Query().Get("offset"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"books":[]}`))
	}))
	defer server.Close()

	client := source.NewQimaoClient("key", server.URL, time.Second, 1)
	_, err := client.Search(context.Background(), "wd value", 2)
	require.NoError(t, err)
}

func TestQimaoClient_GetChapterContent_Audio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "book-1", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"audio"}`))
	}))
	defer server.Close()

	client := source.NewQimaoClient("key", server.URL, time.Second, 1)
	content, err := client.GetChapterContent(context.Background(), "ch-1", "book-1")

	require.NoError(t, err)
	assert.True(t, content.IsAudio)
}

func TestBiqugeClient_GetChapterContent_RequiresBookHint(t *testing.T) {
	client := source.NewBiqugeClient(time.Second, 1)
	_, err := client.GetChapterContent(context.Background(), "1", "")

	require.Error(t, err)
	var invalid *source.InvalidResponseError
	assert.ErrorAs(t, err, &invalid)
}

func TestBiqugeClient_GetChapterList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"list":["Chapter One","Chapter Two"]}`))
	}))
	defer server.Close()

	client := source.NewBiqugeClient(time.Second, 1)
	result, err := client.GetChapterList(context.Background(), "1")

	require.NoError(t, err)
	require.Len(t, result.Chapters, 2)
	assert.Equal(t, 0, result.Chapters[0].ChapterIndex)
	assert.Equal(t, "Chapter Two", result.Chapters[1].Title)
}

func TestBiqugeClient_GetChapterContent_CleansPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"txt":"line one\n\n\n\nline two<<---展开全部章节--->>"}`))
	}))
	defer server.Close()

	client := source.NewBiqugeClient(time.Second, 1)
	content, err := client.GetChapterContent(context.Background(), "1", "book-1")

	require.NoError(t, err)
	assert.Equal(t, "line one\n\nline two", content.Content)
}

func TestRegistry_Get(t *testing.T) {
	fanqie := source.NewFanqieClient("key", "https://example.com", time.Second, 1)
	registry := source.NewRegistry(fanqie)

	client, err := registry.Get(source.ProviderFanqie)
	require.NoError(t, err)
	assert.Equal(t, source.ProviderFanqie, client.Provider())

	_, err = registry.Get("unknown")
	assert.Error(t, err)
}
