// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// QimaoClient implements [SourceClient] for the qimao provider over the
// same Rain API fanqie is proxied through. Main differences from fanqie:
// the search keyword parameter is "wd" instead of "keywords", pages are
// translated to a (page-1)*10 offset, and chapter content requires both the
// book id and the chapter id.
type QimaoClient struct {
	*retryingClient
	apiKey  string
	baseURL string
}

// NewQimaoClient constructs a [QimaoClient].
func NewQimaoClient(apiKey, baseURL string, timeout time.Duration, maxRetries int) *QimaoClient {
	return &QimaoClient{
		retryingClient: newRetryingClient(ProviderQimao, timeout, maxRetries),
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

func (c *QimaoClient) Provider() string { return ProviderQimao }

func (c *QimaoClient) Search(ctx context.Context, keyword string, page int) (*SearchResult, error) {
	offset := page * 10
	if page > 0 {
		offset = (page - 1) * 10
	}
	query := url.Values{"type": {rainTypeSearch}, "wd": {keyword}, "offset": {strconv.Itoa(offset)}, "key": {c.apiKey}}

	var raw rainSearchResponse
	if err := c.getJSON(ctx, c.baseURL, query, &raw); err != nil {
		return nil, err
	}

	books := make([]BookSummary, 0, len(raw.Books))
	for _, b := range raw.Books {
		books = append(books, BookSummary{
			ProviderBookID: b.BookID,
			Title:          b.BookName,
			Author:         b.Author,
			CoverURL:       b.CoverURL,
			Abstract:       b.Abstract,
			WordCount:      b.WordCount,
			StatusText:     b.CreationStatus,
		})
	}

	return &SearchResult{Books: books, Total: len(books), Page: page}, nil
}

func (c *QimaoClient) GetBookDetail(ctx context.Context, providerBookID string) (*BookDetail, error) {
	query := url.Values{"type": {rainTypeBookDetail}, "id": {providerBookID}, "key": {c.apiKey}}

	var raw rainBookDetail
	if err := c.getJSON(ctx, c.baseURL, query, &raw); err != nil {
		return nil, err
	}
	if raw.BookName == "" {
		return nil, &BookNotFoundError{Provider: c.Provider(), ProviderBookID: providerBookID}
	}

	return &BookDetail{
		Title:            raw.BookName,
		Author:           raw.Author,
		CoverURL:         raw.CoverURL,
		Abstract:         raw.Abstract,
		StatusText:       raw.CreationStatus,
		LastChapterTitle: raw.LastChapterTitle,
		LastUpdateUnix:   raw.LastUpdateUnix,
		TotalWordCount:   raw.WordCount,
	}, nil
}

func (c *QimaoClient) GetChapterList(ctx context.Context, providerBookID string) (*ChapterListResult, error) {
	query := url.Values{"type": {rainTypeChapterList}, "id": {providerBookID}, "key": {c.apiKey}}

	var raw rainChapterListResponse
	if err := c.getJSON(ctx, c.baseURL, query, &raw); err != nil {
		return nil, err
	}
	if len(raw.Chapters) == 0 {
		return nil, &BookNotFoundError{Provider: c.Provider(), ProviderBookID: providerBookID}
	}

	chapters := make([]ChapterSummary, len(raw.Chapters))
	for i, item := range raw.Chapters {
		chapters[i] = ChapterSummary{
			ItemID:       item.ItemID,
			Title:        item.Title,
			VolumeName:   item.VolumeName,
			ChapterIndex: i,
			WordCount:    item.WordCount,
			UpdateUnix:   item.UpdateUnix,
		}
	}

	return &ChapterListResult{TotalChapters: len(chapters), Chapters: chapters}, nil
}

func (c *QimaoClient) GetChapterContent(ctx context.Context, itemID, bookHint string) (*ChapterContent, error) {
	query := url.Values{"type": {rainTypeChapterContent}, "chapterid": {itemID}, "key": {c.apiKey}}
	if bookHint != "" {
		query.Set("id", bookHint)
	}

	var raw rainChapterContentResponse
	if err := c.getJSON(ctx, c.baseURL, query, &raw); err != nil {
		return nil, err
	}

	if raw.Type == "audio" {
		return &ChapterContent{IsAudio: true}, nil
	}
	if raw.Content == "" {
		return nil, &ChapterNotFoundError{Provider: c.Provider(), ItemID: itemID}
	}

	return &ChapterContent{Content: raw.Content}, nil
}
