// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	biquSearchURL   = "https://www.510f2f.xyz/api/search"
	biquDetailURL   = "https://www.510f2f.xyz/api/book"
	biquListURL     = "https://www.510f2f.xyz/api/booklist"
	biquContentURL  = "https://m.510f2f.xyz/api/chapter"
	biquCoverFormat = "https://www.510f2f.xyz/bookimg/%s/%s.jpg"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
var expandPlaceholder = "<<---展开全部章节--->>"
var blankLinesPattern = regexp.MustCompile(`\n{3,}`)

// BiqugeClient implements [SourceClient] for the biquge provider, which
// scrapes the site's own JSON endpoints directly rather than going through
// the shared Rain API. Its content endpoint is scoped by the resolved book
// id, so GetChapterContent requires bookHint.
type BiqugeClient struct {
	*retryingClient
}

// NewBiqugeClient constructs a [BiqugeClient].
func NewBiqugeClient(timeout time.Duration, maxRetries int) *BiqugeClient {
	return &BiqugeClient{retryingClient: newRetryingClient(ProviderBiqu, timeout, maxRetries)}
}

func (c *BiqugeClient) Provider() string { return ProviderBiqu }

type biquSearchItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Intro  string `json:"intro"`
	Full   string `json:"full"`
}

type biquSearchResponse struct {
	Data []biquSearchItem `json:"data"`
}

func (c *BiqugeClient) Search(ctx context.Context, keyword string, page int) (*SearchResult, error) {
	var raw biquSearchResponse
	if err := c.getJSON(ctx, biquSearchURL, url.Values{"q": {keyword}}, &raw); err != nil {
		return nil, err
	}

	books := make([]BookSummary, 0, len(raw.Data))
	for _, item := range raw.Data {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		books = append(books, BookSummary{
			ProviderBookID: id,
			Title:          item.Title,
			Author:         item.Author,
			CoverURL:       biquCoverURL(id),
			Abstract:       stripHTML(item.Intro),
			StatusText:     biquStatusText(item.Full),
		})
	}

	return &SearchResult{Books: books, Total: len(books), Page: page}, nil
}

type biquDetailResponse struct {
	ID          string `json:"id"`
	DirID       string `json:"dirid"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Intro       string `json:"intro"`
	Full        string `json:"full"`
	LastChapter string `json:"lastchapter"`
	LastUpdate  string `json:"lastupdate"`
}

func (c *BiqugeClient) GetBookDetail(ctx context.Context, providerBookID string) (*BookDetail, error) {
	var raw biquDetailResponse
	if err := c.getJSON(ctx, biquDetailURL, url.Values{"id": {providerBookID}}, &raw); err != nil {
		return nil, err
	}
	if raw.ID == "" {
		return nil, &BookNotFoundError{Provider: c.Provider(), ProviderBookID: providerBookID}
	}

	return &BookDetail{
		Title:            raw.Title,
		Author:           raw.Author,
		Abstract:         stripHTML(raw.Intro),
		StatusText:       biquStatusText(raw.Full),
		LastChapterTitle: raw.LastChapter,
	}, nil
}

type biquListResponse struct {
	DirID string   `json:"dirid"`
	List  []string `json:"list"`
}

func (c *BiqugeClient) GetChapterList(ctx context.Context, providerBookID string) (*ChapterListResult, error) {
	var raw biquListResponse
	if err := c.getJSON(ctx, biquListURL, url.Values{"id": {providerBookID}}, &raw); err != nil {
		return nil, err
	}
	if len(raw.List) == 0 {
		return nil, &InvalidResponseError{Provider: c.Provider(), Reason: "empty chapter list"}
	}

	chapters := make([]ChapterSummary, len(raw.List))
	for i, title := range raw.List {
		chapters[i] = ChapterSummary{
			ItemID:       fmt.Sprintf("%d", i+1),
			Title:        title,
			ChapterIndex: i,
		}
	}

	return &ChapterListResult{TotalChapters: len(chapters), Chapters: chapters}, nil
}

type biquContentResponse struct {
	Txt string `json:"txt"`
}

func (c *BiqugeClient) GetChapterContent(ctx context.Context, itemID, bookHint string) (*ChapterContent, error) {
	if bookHint == "" {
		return nil, &InvalidResponseError{Provider: c.Provider(), Reason: "book_hint required for chapter content"}
	}

	var raw biquContentResponse
	query := url.Values{"id": {bookHint}, "chapterid": {itemID}}
	if err := c.getJSON(ctx, biquContentURL, query, &raw); err != nil {
		return nil, err
	}

	content := cleanBiquContent(raw.Txt)
	if content == "" {
		return nil, &ChapterNotFoundError{Provider: c.Provider(), ItemID: itemID}
	}

	return &ChapterContent{Content: content}, nil
}

func biquCoverURL(bookID string) string {
	head := bookID
	if len(bookID) > 3 {
		head = bookID[:len(bookID)-3]
	}
	return fmt.Sprintf(biquCoverFormat, head, bookID)
}

func biquStatusText(full string) string {
	if strings.Contains(full, "完") {
		return "已完结"
	}
	return "连载中"
}

func stripHTML(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(htmlTagPattern.ReplaceAllString(text, "")))
}

// cleanBiquContent strips the site's occasional "expand full chapters"
// placeholder and collapses the resulting run of blank lines.
func cleanBiquContent(content string) string {
	if content == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(content, expandPlaceholder, "")
	cleaned = blankLinesPattern.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
