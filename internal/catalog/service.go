// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package catalog

import (
	"context"
	"log/slog"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/platform/validate"
	"github.com/qisumi/inkvault/pkg/uuid"
)

const (
	FieldProvider       = "provider"
	FieldProviderBookID = "provider_book_id"
	FieldTitle          = "title"
	FieldTaskType       = "type"
)

// # Service Layer

// Service orchestrates the business logic for books, chapters, and tasks.
type Service struct {
	books         BookStore
	chapters      ChapterStore
	tasks         TaskStore
	logger        *slog.Logger
	onBookDeleted func(ctx context.Context, bookID string, deleteFiles bool)
}

// NewService constructs a new [Service] with its required repositories.
func NewService(books BookStore, chapters ChapterStore, tasks TaskStore, logger *slog.Logger) *Service {
	return &Service{books: books, chapters: chapters, tasks: tasks, logger: logger}
}

// OnBookDeleted registers a hook invoked after a book's relational rows are
// removed, letting the composition layer purge the corresponding blob-store
// subtree and artifact files without the catalog package depending on them.
func (s *Service) OnBookDeleted(hook func(ctx context.Context, bookID string, deleteFiles bool)) {
	s.onBookDeleted = hook
}

// # Book Operations

// CreateBook registers a new Book. The caller is expected to have already
// resolved the provider metadata via the Source Client.
func (s *Service) CreateBook(ctx context.Context, book *Book) error {
	if book.ID == "" {
		book.ID = uuid.New()
	}

	v := &validate.Validator{}
	v.Required(FieldProvider, book.Provider)
	v.Required(FieldProviderBookID, book.ProviderBookID)
	v.Required(FieldTitle, book.Title)
	if err := v.Err(); err != nil {
		return err
	}

	if existing, err := s.books.GetByProvider(ctx, book.Provider, book.ProviderBookID); err == nil && existing != nil {
		return apperr.Conflict("Book already exists for this provider")
	}

	if book.DownloadStatus == "" {
		book.DownloadStatus = BookPending
	}

	if err := s.books.Create(ctx, book); err != nil {
		return err
	}

	s.logger.Info("book_created",
		slog.String("book_id", book.ID),
		slog.String("provider", book.Provider),
		slog.String("title", book.Title),
	)
	return nil
}

// GetBook retrieves a single book by ID.
func (s *Service) GetBook(ctx context.Context, id string) (*Book, error) {
	return s.books.Get(ctx, id)
}

// GetBookByProvider retrieves a book by its natural key.
func (s *Service) GetBookByProvider(ctx context.Context, provider, providerBookID string) (*Book, error) {
	return s.books.GetByProvider(ctx, provider, providerBookID)
}

// ListBooks retrieves paginated, filtered book metadata.
func (s *Service) ListBooks(ctx context.Context, filter BookFilter, limit, offset int) ([]*Book, int, error) {
	return s.books.List(ctx, filter, limit, offset)
}

// RefreshMetadata updates a book's editorial fields (title, author, cover,
// total chapter count) as learned from an upstream refresh, without
// touching its download state.
func (s *Service) RefreshMetadata(ctx context.Context, book *Book) error {
	v := &validate.Validator{}
	v.Required(FieldTitle, book.Title)
	if err := v.Err(); err != nil {
		return err
	}
	return s.books.UpdateMetadata(ctx, book)
}

// DeleteBook removes a book and, by foreign-key cascade, every chapter and
// task that belongs to it, then invokes the registered
// [Service.OnBookDeleted] hook with deleteFiles. The hook wired in cmd/api
// purges the book's blob-store subtree when deleteFiles is set; artifact
// files are not removed.
func (s *Service) DeleteBook(ctx context.Context, id string, deleteFiles bool) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("book_deleted", slog.String("book_id", id), slog.Bool("delete_files", deleteFiles))
	if s.onBookDeleted != nil {
		s.onBookDeleted(ctx, id, deleteFiles)
	}
	return nil
}

// SetBookDownloadStatus transitions a book's aggregate download_status,
// used by the Download Engine as a task moves through its lifecycle.
func (s *Service) SetBookDownloadStatus(ctx context.Context, id string, status BookDownloadStatus) error {
	return s.books.UpdateDownloadStatus(ctx, id, status)
}

// RecomputeBookDownloadedChapters recounts and persists a book's completed
// chapter count from the chapters table.
func (s *Service) RecomputeBookDownloadedChapters(ctx context.Context, id string) error {
	return s.books.RecomputeDownloadedChapters(ctx, id)
}

// # Chapter Operations

// ListChapters retrieves paginated chapter metadata for a book.
func (s *Service) ListChapters(ctx context.Context, bookID string, limit, offset int) ([]*Chapter, int, error) {
	return s.chapters.ListByBook(ctx, bookID, limit, offset)
}

// GetChapter retrieves a single chapter by ID.
func (s *Service) GetChapter(ctx context.Context, id string) (*Chapter, error) {
	return s.chapters.Get(ctx, id)
}

// GetChapterByIndex retrieves a chapter by its 0-based position in a book.
func (s *Service) GetChapterByIndex(ctx context.Context, bookID string, index int) (*Chapter, error) {
	return s.chapters.GetByIndex(ctx, bookID, index)
}

// ChapterSummary buckets a book's chapters into fixed-size segments ordered
// by chapter_index, reporting each segment's download-status breakdown for
// a heatmap-style progress view.
func (s *Service) ChapterSummary(ctx context.Context, bookID string, segmentSize int) (*ChapterSummary, error) {
	chapters, err := s.chapters.ListForProcessing(ctx, bookID, ChapterRange{}, nil)
	if err != nil {
		return nil, err
	}

	summary := &ChapterSummary{BookID: bookID, SegmentSize: segmentSize}
	if len(chapters) == 0 {
		return summary, nil
	}

	summary.TotalChapters = len(chapters)
	for _, ch := range chapters {
		switch ch.DownloadStatus {
		case ChapterCompleted:
			summary.CompletedChapters++
		case ChapterFailed:
			summary.FailedChapters++
		default:
			summary.PendingChapters++
		}
	}

	for start := 0; start < len(chapters); start += segmentSize {
		end := start + segmentSize
		if end > len(chapters) {
			end = len(chapters)
		}
		bucket := chapters[start:end]

		segment := ChapterSegment{
			StartIndex:       bucket[0].ChapterIndex,
			EndIndex:         bucket[len(bucket)-1].ChapterIndex,
			Total:            len(bucket),
			FirstChapterName: bucket[0].Title,
			LastChapterName:  bucket[len(bucket)-1].Title,
		}
		for _, ch := range bucket {
			switch ch.DownloadStatus {
			case ChapterCompleted:
				segment.Completed++
			case ChapterFailed:
				segment.Failed++
			default:
				segment.Pending++
			}
		}
		if segment.Total > 0 {
			segment.CompletionRate = roundTo(float64(segment.Completed)/float64(segment.Total), 4)
		}
		summary.Segments = append(summary.Segments, segment)
	}

	return summary, nil
}

// SyncChapterList reconciles the chapter list returned by the Source Client
// against what is already stored, inserting only chapters past the current
// max index. The returned int is the count of newly inserted chapters.
func (s *Service) SyncChapterList(ctx context.Context, bookID string, upstream []*Chapter) (int, error) {
	maxIndex, has, err := s.chapters.MaxIndex(ctx, bookID)
	if err != nil {
		return 0, err
	}

	var fresh []*Chapter
	for _, ch := range upstream {
		if has && ch.ChapterIndex <= maxIndex {
			continue
		}
		if ch.ID == "" {
			ch.ID = uuid.New()
		}
		ch.BookID = bookID
		if ch.DownloadStatus == "" {
			ch.DownloadStatus = ChapterPending
		}
		fresh = append(fresh, ch)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := s.chapters.CreateMany(ctx, fresh); err != nil {
		return 0, err
	}

	s.logger.Info("chapters_synced", slog.String("book_id", bookID), slog.Int("new_chapters", len(fresh)))
	return len(fresh), nil
}

// MarkChapterDownloading transitions a chapter into the downloading state.
func (s *Service) MarkChapterDownloading(ctx context.Context, id string) error {
	return s.chapters.SetDownloading(ctx, id)
}

// CompleteChapter performs the §4.1 atomic transition: the chapter is
// marked completed with its content reference and word count, and the
// owning book's downloaded_chapters counter is recomputed in the same
// commit.
func (s *Service) CompleteChapter(ctx context.Context, id, bookID, contentRef string, wordCount int) error {
	if err := s.chapters.SetCompleted(ctx, id, bookID, contentRef, wordCount); err != nil {
		return err
	}
	s.logger.Info("chapter_completed", slog.String("chapter_id", id), slog.String("book_id", bookID))
	return nil
}

// FailChapter marks a chapter failed. Per §4.1, write failure on a single
// chapter does not abort the containing task.
func (s *Service) FailChapter(ctx context.Context, id string) error {
	return s.chapters.SetFailed(ctx, id)
}

// ChaptersForRange resolves the ordered chapter slice a task should process,
// honoring the chapter range and the status-filter policy of §4.5.
func (s *Service) ChaptersForRange(ctx context.Context, bookID string, r ChapterRange, statuses []ChapterDownloadStatus) ([]*Chapter, error) {
	return s.chapters.ListForProcessing(ctx, bookID, r, statuses)
}

// ResetChaptersForFullDownload resets previously-completed chapters in r
// back to pending, clearing their content reference. Used when a
// full_download task is started with skip_completed = false.
func (s *Service) ResetChaptersForFullDownload(ctx context.Context, bookID string, r ChapterRange) error {
	return s.chapters.ResetToPending(ctx, bookID, r)
}

// RetryFailedChapters flips every failed chapter of a book back to pending,
// returning how many chapters were affected.
func (s *Service) RetryFailedChapters(ctx context.Context, bookID string) (int, error) {
	count, err := s.chapters.CountByStatus(ctx, bookID, ChapterFailed)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if err := s.chapters.ResetFailedToPending(ctx, bookID); err != nil {
		return 0, err
	}
	s.logger.Info("chapters_reset_for_retry", slog.String("book_id", bookID), slog.Int("count", count))
	return count, nil
}

// # Task Operations

// CreateTask creates a task snapshotting its total at creation time per the
// §4.1 derived-total contract: later additions of new chapters never
// retroactively change an existing task's total.
func (s *Service) CreateTask(ctx context.Context, bookID string, taskType TaskType, total int) (*Task, error) {
	v := &validate.Validator{}
	v.Custom(FieldTaskType, taskType != TaskFullDownload && taskType != TaskUpdate, "Unknown task type")
	if err := v.Err(); err != nil {
		return nil, err
	}

	task := &Task{
		ID:     uuid.New(),
		BookID: bookID,
		Type:   taskType,
		Status: TaskPending,
		Total:  total,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.logger.Info("task_created",
		slog.String("task_id", task.ID),
		slog.String("book_id", bookID),
		slog.String("type", string(taskType)),
		slog.Int("total", total),
	)
	return task, nil
}

// GetTask retrieves a single task by ID.
func (s *Service) GetTask(ctx context.Context, id string) (*Task, error) {
	return s.tasks.Get(ctx, id)
}

// ListTasksForBook retrieves paginated task history for a book.
func (s *Service) ListTasksForBook(ctx context.Context, bookID string, limit, offset int) ([]*Task, int, error) {
	return s.tasks.ListByBook(ctx, bookID, limit, offset)
}

// LatestActiveTask returns the most recent pending or running task for a
// book, used to reject overlapping download requests.
func (s *Service) LatestActiveTask(ctx context.Context, bookID string) (*Task, error) {
	return s.tasks.LatestActiveByBook(ctx, bookID)
}

// StartTask transitions a task to running.
func (s *Service) StartTask(ctx context.Context, id string) error {
	return s.tasks.MarkRunning(ctx, id)
}

// UpdateTaskCounters records the task's running downloaded/failed counts.
func (s *Service) UpdateTaskCounters(ctx context.Context, id string, downloaded, failed int) error {
	return s.tasks.UpdateCounters(ctx, id, downloaded, failed)
}

// FinishTask marks a task with a terminal status (completed, failed, or
// cancelled).
func (s *Service) FinishTask(ctx context.Context, id string, status TaskStatus, errorMessage *string) error {
	if err := s.tasks.MarkTerminal(ctx, id, status, errorMessage); err != nil {
		return err
	}
	s.logger.Info("task_finished", slog.String("task_id", id), slog.String("status", string(status)))
	return nil
}
