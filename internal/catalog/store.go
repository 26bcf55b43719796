// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import "context"

// BookStore persists Book aggregates.
type BookStore interface {
	Create(ctx context.Context, book *Book) error
	Get(ctx context.Context, id string) (*Book, error)
	GetByProvider(ctx context.Context, provider, providerBookID string) (*Book, error)
	List(ctx context.Context, filter BookFilter, limit, offset int) ([]*Book, int, error)
	UpdateMetadata(ctx context.Context, book *Book) error
	UpdateDownloadStatus(ctx context.Context, id string, status BookDownloadStatus) error
	RecomputeDownloadedChapters(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// ChapterStore persists Chapter rows belonging to a Book.
type ChapterStore interface {
	Create(ctx context.Context, chapter *Chapter) error
	CreateMany(ctx context.Context, chapters []*Chapter) error
	Get(ctx context.Context, id string) (*Chapter, error)
	GetByIndex(ctx context.Context, bookID string, index int) (*Chapter, error)
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Chapter, int, error)
	ListForProcessing(ctx context.Context, bookID string, r ChapterRange, statuses []ChapterDownloadStatus) ([]*Chapter, error)
	MaxIndex(ctx context.Context, bookID string) (int, bool, error)
	CountByStatus(ctx context.Context, bookID string, status ChapterDownloadStatus) (int, error)
	SetDownloading(ctx context.Context, id string) error
	// SetCompleted performs the atomic chapter-status transition: in one
	// commit it marks the chapter completed, records contentRef, and
	// recomputes the owning book's downloaded_chapters count.
	SetCompleted(ctx context.Context, id, bookID, contentRef string, wordCount int) error
	SetFailed(ctx context.Context, id string) error
	ResetToPending(ctx context.Context, bookID string, r ChapterRange) error
	ResetFailedToPending(ctx context.Context, bookID string) error
}

// TaskStore persists download Task rows.
type TaskStore interface {
	Create(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	ListByBook(ctx context.Context, bookID string, limit, offset int) ([]*Task, int, error)
	LatestActiveByBook(ctx context.Context, bookID string) (*Task, error)
	List(ctx context.Context, limit, offset int) ([]*Task, int, error)
	SetTotal(ctx context.Context, id string, total int) error
	MarkRunning(ctx context.Context, id string) error
	UpdateCounters(ctx context.Context, id string, downloaded, failed int) error
	MarkTerminal(ctx context.Context, id string, status TaskStatus, errorMessage *string) error
}
