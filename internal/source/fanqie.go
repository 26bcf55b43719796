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

// rainAPIType mirrors the upstream "type" query parameter distinguishing
// search/detail/chapter-list/chapter-content requests on the shared Rain
// API endpoint fanqie and qimao are both proxied through.
const (
	rainTypeSearch         = "1"
	rainTypeBookDetail     = "2"
	rainTypeChapterList    = "3"
	rainTypeChapterContent = "4"
)

// FanqieClient implements [SourceClient] for the fanqie provider over the
// shared Rain API.
type FanqieClient struct {
	*retryingClient
	apiKey  string
	baseURL string
}

// NewFanqieClient constructs a [FanqieClient].
func NewFanqieClient(apiKey, baseURL string, timeout time.Duration, maxRetries int) *FanqieClient {
	return &FanqieClient{
		retryingClient: newRetryingClient(ProviderFanqie, timeout, maxRetries),
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
	}
}

func (c *FanqieClient) Provider() string { return ProviderFanqie }

type rainSearchBook struct {
	BookID         string `json:"book_id"`
	BookName       string `json:"book_name"`
	Author         string `json:"author"`
	CoverURL       string `json:"cover_url"`
	Abstract       string `json:"abstract"`
	WordCount      int    `json:"word_count"`
	CreationStatus string `json:"creation_status"`
}

type rainSearchResponse struct {
	Books []rainSearchBook `json:"books"`
}

func (c *FanqieClient) Search(ctx context.Context, keyword string, page int) (*SearchResult, error) {
	query := url.Values{"type": {rainTypeSearch}, "keywords": {keyword}, "page": {strconv.Itoa(page)}, "key": {c.apiKey}}

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
			CoverURL:       replaceFanqieCoverURL(b.CoverURL),
			Abstract:       b.Abstract,
			WordCount:      b.WordCount,
			StatusText:     b.CreationStatus,
		})
	}

	return &SearchResult{Books: books, Total: len(books), Page: page}, nil
}

type rainBookDetail struct {
	BookName         string `json:"book_name"`
	Author           string `json:"author"`
	CoverURL         string `json:"cover_url"`
	Abstract         string `json:"abstract"`
	WordCount        int    `json:"word_count"`
	CreationStatus   string `json:"creation_status"`
	LastChapterTitle string `json:"last_chapter_title"`
	LastUpdateUnix   int64  `json:"last_update_timestamp"`
}

func (c *FanqieClient) GetBookDetail(ctx context.Context, providerBookID string) (*BookDetail, error) {
	query := url.Values{"type": {rainTypeBookDetail}, "bookid": {providerBookID}, "key": {c.apiKey}}

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
		CoverURL:         replaceFanqieCoverURL(raw.CoverURL),
		Abstract:         raw.Abstract,
		StatusText:       raw.CreationStatus,
		LastChapterTitle: raw.LastChapterTitle,
		LastUpdateUnix:   raw.LastUpdateUnix,
		TotalWordCount:   raw.WordCount,
	}, nil
}

type rainChapterItem struct {
	ItemID     string `json:"item_id"`
	Title      string `json:"title"`
	VolumeName string `json:"volume_name"`
	WordCount  int    `json:"word_count"`
	UpdateUnix int64  `json:"update_timestamp"`
}

type rainChapterListResponse struct {
	Chapters []rainChapterItem `json:"chapters"`
}

func (c *FanqieClient) GetChapterList(ctx context.Context, providerBookID string) (*ChapterListResult, error) {
	query := url.Values{"type": {rainTypeChapterList}, "bookid": {providerBookID}, "key": {c.apiKey}}

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

type rainChapterContentResponse struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (c *FanqieClient) GetChapterContent(ctx context.Context, itemID, _ string) (*ChapterContent, error) {
	query := url.Values{"type": {rainTypeChapterContent}, "itemid": {itemID}, "key": {c.apiKey}}

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

// replaceFanqieCoverURL converts a fanqie cover URL to its high-resolution
// origin form, stripping the host, any "~WxH" size suffix, and query
// parameters per the provider's known CDN convention.
func replaceFanqieCoverURL(original string) string {
	if original == "" {
		return ""
	}

	url := strings.TrimPrefix(strings.TrimPrefix(original, "https://"), "http://")
	parts := strings.Split(url, "/")
	if len(parts) < 2 {
		return original
	}

	parts[0] = "p6-novel.byteimg.com"
	if parts[1] != "origin" {
		parts = append(parts[:1], append([]string{"origin"}, parts[1:]...)...)
	}

	for i, part := range parts {
		if idx := strings.Index(part, "?"); idx >= 0 {
			part = part[:idx]
		}
		if idx := strings.Index(part, "~"); idx >= 0 {
			part = part[:idx]
		}
		parts[i] = part
	}

	return "https://" + strings.Join(parts, "/")
}
