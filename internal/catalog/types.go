// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog is the relational persistence layer (C1): books, chapters,
and download tasks. It owns every row describing what exists and what state
it is in; the Blob Store (internal/blobstore) owns the corresponding bytes.
*/
package catalog

import (
	"encoding/json"
	"time"
)

// BookDownloadStatus enumerates a Book's aggregate download state.
type BookDownloadStatus string

const (
	BookPending     BookDownloadStatus = "pending"
	BookDownloading BookDownloadStatus = "downloading"
	BookPartial     BookDownloadStatus = "partial"
	BookCompleted   BookDownloadStatus = "completed"
	BookFailed      BookDownloadStatus = "failed"
)

// ChapterDownloadStatus enumerates a Chapter's download state.
type ChapterDownloadStatus string

const (
	ChapterPending     ChapterDownloadStatus = "pending"
	ChapterDownloading ChapterDownloadStatus = "downloading"
	ChapterCompleted   ChapterDownloadStatus = "completed"
	ChapterFailed      ChapterDownloadStatus = "failed"
)

// TaskType enumerates the kind of batch a Task represents.
type TaskType string

const (
	TaskFullDownload TaskType = "full_download"
	TaskUpdate       TaskType = "update"
)

// TaskStatus enumerates a Task's lifecycle state. Completed, Failed, and
// Cancelled are absorbing: no transition leads out of them.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Book is a persisted work consisting of an ordered sequence of chapters.
// Natural key (Provider, ProviderBookID) is unique.
type Book struct {
	ID                 string             `json:"id"`
	Provider           string             `json:"provider"`
	ProviderBookID     string             `json:"provider_book_id"`
	Title              string             `json:"title"`
	Author             string             `json:"author"`
	CoverRef           *string            `json:"cover_ref,omitempty"`
	TotalChapters      int                `json:"total_chapters"`
	DownloadedChapters int                `json:"downloaded_chapters"`
	DownloadStatus     BookDownloadStatus `json:"download_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Chapter is one unit of text content identified by its 0-based index
// within a Book.
type Chapter struct {
	ID             string                `json:"id"`
	BookID         string                `json:"book_id"`
	ItemID         string                `json:"item_id"`
	ChapterIndex   int                   `json:"chapter_index"`
	Title          string                `json:"title"`
	VolumeName     *string               `json:"volume_name,omitempty"`
	WordCount      int                   `json:"word_count"`
	DownloadStatus ChapterDownloadStatus `json:"download_status"`
	ContentRef     *string               `json:"content_ref,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// Task is a bounded, cancellable batch of chapter downloads tied to one Book.
type Task struct {
	ID           string     `json:"id"`
	BookID       string     `json:"book_id"`
	Type         TaskType   `json:"type"`
	Status       TaskStatus `json:"status"`
	Total        int        `json:"total"`
	Downloaded   int        `json:"downloaded"`
	Failed       int        `json:"failed"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// Progress returns the task's completion percentage, rounded to 2 decimals.
// Returns 0 when Total is 0.
func (t Task) Progress() float64 {
	if t.Total <= 0 {
		return 0
	}
	raw := float64(t.Downloaded+t.Failed) / float64(t.Total) * 100
	return roundTo(raw, 2)
}

// taskJSON mirrors Task for marshaling, adding the derived Progress field
// clients poll for completion percentage.
type taskJSON struct {
	ID           string     `json:"id"`
	BookID       string     `json:"book_id"`
	Type         TaskType   `json:"type"`
	Status       TaskStatus `json:"status"`
	Total        int        `json:"total"`
	Downloaded   int        `json:"downloaded"`
	Failed       int        `json:"failed"`
	Progress     float64    `json:"progress"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// MarshalJSON includes the derived Progress percentage alongside Task's
// stored fields.
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:           t.ID,
		BookID:       t.BookID,
		Type:         t.Type,
		Status:       t.Status,
		Total:        t.Total,
		Downloaded:   t.Downloaded,
		Failed:       t.Failed,
		Progress:     t.Progress(),
		ErrorMessage: t.ErrorMessage,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
	})
}

func roundTo(v float64, places int) float64 {
	pow := 1.0
	for i := 0; i < places; i++ {
		pow *= 10
	}
	shifted := v * pow
	rounded := float64(int64(shifted + 0.5))
	return rounded / pow
}

// BookFilter narrows a ListBooks query.
type BookFilter struct {
	Provider string
	Status   BookDownloadStatus
	Search   string
}

// ChapterRange selects a contiguous, inclusive slice of a Book's chapters by
// index; a nil bound means unbounded on that side.
type ChapterRange struct {
	StartChapter *int
	EndChapter   *int
}

// ChapterSegment is one fixed-size bucket of a Book's chapters, reported by
// [Service.ChapterSummary] for a heatmap-style progress view.
type ChapterSegment struct {
	StartIndex       int     `json:"start_index"`
	EndIndex         int     `json:"end_index"`
	Total            int     `json:"total"`
	Completed        int     `json:"completed"`
	Pending          int     `json:"pending"`
	Failed           int     `json:"failed"`
	CompletionRate   float64 `json:"completion_rate"`
	FirstChapterName string  `json:"first_chapter_title"`
	LastChapterName  string  `json:"last_chapter_title"`
}

// ChapterSummary buckets a Book's chapters into fixed-size segments.
type ChapterSummary struct {
	BookID            string           `json:"book_id"`
	TotalChapters     int              `json:"total_chapters"`
	CompletedChapters int              `json:"completed_chapters"`
	PendingChapters   int              `json:"pending_chapters"`
	FailedChapters    int              `json:"failed_chapters"`
	SegmentSize       int              `json:"segment_size"`
	Segments          []ChapterSegment `json:"segments"`
}
