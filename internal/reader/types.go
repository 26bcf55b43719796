// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reader is the consolidated Reader Service (C7): table-of-contents
pagination, chapter content resolution with download-on-demand and
prefetch, and cross-device progress/bookmark/history sync. Grounded on the
Python original's app/services/reader/{toc_service,chapter_service,
progress_service,bookmark_service,history_service}.py, which this package
folds into one Go package per the consolidation decision recorded in
SPEC_FULL.md.
*/
package reader

import "time"

// Progress is the single cross-device reading position for one (user, book).
type Progress struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	ChapterID string    `json:"chapter_id"`
	DeviceID  string    `json:"device_id"`
	OffsetPx  int       `json:"offset_px"`
	Percent   float64   `json:"percent"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Bookmark is a user-placed marker within a book at a specific chapter.
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	ChapterID string    `json:"chapter_id"`
	Percent   float64   `json:"percent"`
	Note      *string   `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one append-only record of a progress write, kept for the
// reading-history timeline.
type HistoryEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	BookID    string    `json:"book_id"`
	ChapterID string    `json:"chapter_id"`
	DeviceID  string    `json:"device_id"`
	Percent   float64   `json:"percent"`
	CreatedAt time.Time `json:"created_at"`
}

// TOCEntry is one lightweight row of a book's table of contents.
type TOCEntry struct {
	ID             string    `json:"id"`
	Index          int       `json:"index"`
	Title          string    `json:"title"`
	WordCount      int       `json:"word_count"`
	UpdatedAt      time.Time `json:"updated_at"`
	DownloadStatus string    `json:"download_status"`
}

// TOCPage is a single page of a book's table of contents.
type TOCPage struct {
	Chapters []TOCEntry `json:"chapters"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	Pages    int        `json:"pages"`
	HasMore  bool       `json:"has_more"`
}

// ContentStatus is the outcome of a chapter-content fetch.
type ContentStatus string

const (
	ContentReady    ContentStatus = "ready"
	ContentFetching ContentStatus = "fetching"
)

// Format selects how chapter content is rendered in [ChapterContent].
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ChapterContent is the response payload for a chapter-content request.
type ChapterContent struct {
	ChapterID   string        `json:"chapter_id"`
	Title       string        `json:"title"`
	Index       int           `json:"index"`
	PrevID      *string       `json:"prev_id,omitempty"`
	NextID      *string       `json:"next_id,omitempty"`
	WordCount   int           `json:"word_count"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Status      ContentStatus `json:"status"`
	Message     string        `json:"message,omitempty"`
	ContentText string        `json:"content_text,omitempty"`
	ContentHTML string        `json:"content_html,omitempty"`
}

// FetchRange biases content resolution toward a neighboring chapter before
// reading the requested one, per §4.7's fetch_range parameter.
type FetchRange string

const (
	FetchRangeNone FetchRange = ""
	FetchRangePrev FetchRange = "prev"
	FetchRangeNext FetchRange = "next"
)

// NewChapterSummary describes one chapter discovered by [Service.CheckNewChapters]
// that is not yet materialized in the Catalog Store.
type NewChapterSummary struct {
	ItemID       string `json:"item_id"`
	ChapterIndex int    `json:"chapter_index"`
	Title        string `json:"title"`
}

// CacheStatus reports which chapters of a book currently have content
// cached in the Blob Store.
type CacheStatus struct {
	CompletedChapterIDs []string  `json:"completed_chapter_ids"`
	CheckedAt           time.Time `json:"checked_at"`
}
