// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package download is the scheduler (C5): a bounded, per-task worker pool
that executes chapter-fetch batches against the Source Client, persists
results through the Catalog Store and Blob Store, and accounts usage
through the Quota Ledger. Grounded on jackzampolin-shelf's
internal/jobs/{pool.go,cpu_pool.go} for the channel-fed worker-pool shape
(the pool here is a single function; there is no Submit/Start/Status
lifecycle and no WorkerPool interface) and on original_source's
app/services/download_service_operations.py for the exact execute-task step
sequence and terminal-state rules.
*/
package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/progressbus"
	"github.com/qisumi/inkvault/internal/quota"
	"github.com/qisumi/inkvault/internal/source"
)

// ErrQuotaReached is returned by [Engine.DownloadChapterWithRetry] when a
// provider runs out of daily quota before any attempt is made.
var ErrQuotaReached = errors.New("download: provider quota reached")

// ErrTaskAlreadyRunning is returned when a book already has an active
// (pending or running) task and a caller tries to start another.
var ErrTaskAlreadyRunning = errors.New("download: book already has an active task")

// Config tunes an [Engine]'s concurrency and pacing.
type Config struct {
	ConcurrentDownloads int
	DownloadDelay       time.Duration
}

// Engine is the C5 download scheduler.
type Engine struct {
	catalog *catalog.Service
	blobs   *blobstore.Store
	quota   *quota.Ledger
	sources *source.Registry
	bus     *progressbus.Bus
	logger  *slog.Logger
	cfg     Config

	mu        sync.Mutex
	cancelled map[string]bool
}

// New constructs an [Engine].
func New(catalogSvc *catalog.Service, blobs *blobstore.Store, ledger *quota.Ledger, sources *source.Registry, bus *progressbus.Bus, cfg Config, logger *slog.Logger) *Engine {
	if cfg.ConcurrentDownloads <= 0 {
		cfg.ConcurrentDownloads = 3
	}
	return &Engine{
		catalog:   catalogSvc,
		blobs:     blobs,
		quota:     ledger,
		sources:   sources,
		bus:       bus,
		logger:    logger,
		cfg:       cfg,
		cancelled: make(map[string]bool),
	}
}

// CreateTask computes the initial, advisory chapter count for a new task
// and persists it with status pending. Per §9's locked decision this total
// is recomputed from a fresh query at execute time; it exists only so
// clients polling immediately after creation see a plausible number.
func (e *Engine) CreateTask(ctx context.Context, bookID string, taskType catalog.TaskType, r catalog.ChapterRange, skipCompleted bool) (*catalog.Task, error) {
	if book, err := e.catalog.GetBook(ctx, bookID); err != nil {
		return nil, err
	} else if book == nil {
		return nil, apperr.NotFound("Book")
	}

	if existing, err := e.catalog.LatestActiveTask(ctx, bookID); err == nil && existing != nil {
		return nil, ErrTaskAlreadyRunning
	}

	statuses := pendingStatusesFor(taskType, skipCompleted)
	chapters, err := e.catalog.ChaptersForRange(ctx, bookID, r, statuses)
	if err != nil {
		return nil, err
	}

	return e.catalog.CreateTask(ctx, bookID, taskType, len(chapters))
}

// pendingStatusesFor mirrors the create-task and step-3 chapter-selection
// policy: full_download processes everything not completed (or
// everything, if skip_completed is false); update processes only pending.
func pendingStatusesFor(taskType catalog.TaskType, skipCompleted bool) []catalog.ChapterDownloadStatus {
	if taskType == catalog.TaskUpdate {
		return []catalog.ChapterDownloadStatus{catalog.ChapterPending}
	}
	if skipCompleted {
		return []catalog.ChapterDownloadStatus{catalog.ChapterPending, catalog.ChapterDownloading, catalog.ChapterFailed}
	}
	return nil
}

// Execute runs a task to completion. It is safe to call from a background
// goroutine; callers typically do so immediately after CreateTask returns.
func (e *Engine) Execute(ctx context.Context, taskID string, skipCompleted bool, r catalog.ChapterRange) {
	task, err := e.catalog.GetTask(ctx, taskID)
	if err != nil {
		e.logger.Error("download_task_lookup_failed", slog.String("task_id", taskID), slog.Any("error", err))
		return
	}

	book, err := e.catalog.GetBook(ctx, task.BookID)
	if err != nil {
		e.logger.Error("download_task_book_lookup_failed", slog.String("task_id", taskID), slog.Any("error", err))
		return
	}

	if task.Type == catalog.TaskFullDownload && !skipCompleted {
		if err := e.catalog.ResetChaptersForFullDownload(ctx, book.ID, r); err != nil {
			e.logger.Error("download_reset_failed", slog.String("task_id", taskID), slog.Any("error", err))
		}
	}

	if err := e.catalog.SetBookDownloadStatus(ctx, book.ID, catalog.BookDownloading); err != nil {
		e.logger.Error("download_book_status_failed", slog.String("book_id", book.ID), slog.Any("error", err))
	}
	if err := e.catalog.StartTask(ctx, taskID); err != nil {
		e.logger.Error("download_task_start_failed", slog.String("task_id", taskID), slog.Any("error", err))
	}

	statuses := pendingStatusesFor(task.Type, skipCompleted)
	chapters, err := e.catalog.ChaptersForRange(ctx, book.ID, r, statuses)
	if err != nil {
		e.finishFailed(ctx, task, book, err.Error())
		return
	}

	if len(chapters) == 0 {
		_ = e.catalog.FinishTask(ctx, taskID, catalog.TaskCompleted, nil)
		_ = e.catalog.SetBookDownloadStatus(ctx, book.ID, catalog.BookCompleted)
		_ = e.catalog.RecomputeBookDownloadedChapters(ctx, book.ID)
		e.publishTerminal(taskID, catalog.TaskCompleted, book.Title, 0, "")
		return
	}

	counters := &taskCounters{}
	e.runWorkerPool(ctx, book, chapters, taskID, counters)

	e.finalizeTask(ctx, taskID, book, counters)
}

type taskCounters struct {
	mu         sync.Mutex
	downloaded int
	failed     int
	total      int
}

func (c *taskCounters) recordSuccess() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.downloaded++
	return c.downloaded, c.failed
}

func (c *taskCounters) recordFailure() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed++
	return c.downloaded, c.failed
}

// runWorkerPool submits chapters to a bounded pool of size
// cfg.ConcurrentDownloads and blocks until every chapter has been processed
// or the task is cancelled.
func (e *Engine) runWorkerPool(ctx context.Context, book *catalog.Book, chapters []*catalog.Chapter, taskID string, counters *taskCounters) {
	counters.total = len(chapters)
	work := make(chan *catalog.Chapter)
	var wg sync.WaitGroup

	for i := 0; i < e.cfg.ConcurrentDownloads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chapter := range work {
				e.processChapter(ctx, book, chapter, taskID, counters)
				if e.cfg.DownloadDelay > 0 {
					time.Sleep(e.cfg.DownloadDelay)
				}
			}
		}()
	}

	for _, chapter := range chapters {
		if e.isCancelled(taskID) {
			break
		}
		work <- chapter
	}
	close(work)
	wg.Wait()
}

func (e *Engine) processChapter(ctx context.Context, book *catalog.Book, chapter *catalog.Chapter, taskID string, counters *taskCounters) {
	if e.isCancelled(taskID) {
		return
	}

	canDownload, err := e.quota.CanDownload(ctx, book.Provider)
	if err != nil {
		e.logger.Warn("quota_check_failed", slog.String("provider", book.Provider), slog.Any("error", err))
	}
	if !canDownload {
		e.logger.Warn("quota_exhausted_mid_task", slog.String("task_id", taskID), slog.String("provider", book.Provider))
		e.markChapterFailed(ctx, chapter)
		downloaded, failed := counters.recordFailure()
		e.reportProgress(ctx, taskID, book, downloaded, failed, counters.total)
		return
	}

	wordCount, err := e.fetchAndStoreChapter(ctx, book, chapter)
	if err != nil {
		e.logger.Warn("chapter_download_failed", slog.String("chapter_id", chapter.ID), slog.Any("error", err))
		e.markChapterFailed(ctx, chapter)
		downloaded, failed := counters.recordFailure()
		e.reportProgress(ctx, taskID, book, downloaded, failed, counters.total)
		return
	}

	if _, err := e.quota.Record(ctx, book.Provider, int64(wordCount)); err != nil {
		e.logger.Warn("quota_record_failed", slog.String("provider", book.Provider), slog.Any("error", err))
	}

	downloaded, failed := counters.recordSuccess()
	e.reportProgress(ctx, taskID, book, downloaded, failed, counters.total)
}

// fetchAndStoreChapter performs the per-chapter fetch-and-persist step
// shared by the task pipeline and the single-chapter retry path.
func (e *Engine) fetchAndStoreChapter(ctx context.Context, book *catalog.Book, chapter *catalog.Chapter) (int, error) {
	client, err := e.sources.Get(book.Provider)
	if err != nil {
		return 0, err
	}

	if err := e.catalog.MarkChapterDownloading(ctx, chapter.ID); err != nil {
		e.logger.Warn("chapter_mark_downloading_failed", slog.String("chapter_id", chapter.ID), slog.Any("error", err))
	}

	content, err := client.GetChapterContent(ctx, chapter.ItemID, book.ProviderBookID)
	if err != nil {
		return 0, err
	}
	if content.IsAudio {
		return 0, fmt.Errorf("download: chapter %s is audio, not supported", chapter.ID)
	}

	contentRef, err := e.blobs.WriteChapter(book.ID, chapter.ChapterIndex, content.Content)
	if err != nil {
		return 0, err
	}

	wordCount := len([]rune(content.Content))
	if err := e.catalog.CompleteChapter(ctx, chapter.ID, book.ID, contentRef, wordCount); err != nil {
		return 0, err
	}

	return wordCount, nil
}

func (e *Engine) markChapterFailed(ctx context.Context, chapter *catalog.Chapter) {
	if err := e.catalog.FailChapter(ctx, chapter.ID); err != nil {
		e.logger.Warn("chapter_mark_failed_failed", slog.String("chapter_id", chapter.ID), slog.Any("error", err))
	}
}

func (e *Engine) reportProgress(ctx context.Context, taskID string, book *catalog.Book, downloaded, failed, total int) {
	if err := e.catalog.UpdateTaskCounters(ctx, taskID, downloaded, failed); err != nil {
		e.logger.Warn("task_counters_update_failed", slog.String("task_id", taskID), slog.Any("error", err))
	}

	progress := float64(0)
	if total > 0 {
		progress = float64(downloaded+failed) / float64(total) * 100
	}

	e.bus.Publish(progressbus.Event{
		Type:       progressbus.EventProgress,
		TaskID:     taskID,
		Status:     string(catalog.TaskRunning),
		Total:      total,
		Downloaded: downloaded,
		Failed:     failed,
		Progress:   progress,
		BookTitle:  book.Title,
		Timestamp:  time.Now(),
	})
}

func (e *Engine) finalizeTask(ctx context.Context, taskID string, book *catalog.Book, counters *taskCounters) {
	cancelled := e.isCancelled(taskID)
	e.clearCancelled(taskID)

	var status catalog.TaskStatus
	var bookStatus catalog.BookDownloadStatus
	var errorMessage *string

	switch {
	case cancelled:
		status = catalog.TaskCancelled
		if counters.downloaded > 0 {
			bookStatus = catalog.BookPartial
		} else {
			bookStatus = catalog.BookPending
		}
	case counters.failed > 0:
		status = catalog.TaskFailed
		bookStatus = catalog.BookFailed
		msg := fmt.Sprintf("%d个章节下载失败", counters.failed)
		errorMessage = &msg
	default:
		status = catalog.TaskCompleted
		bookStatus = catalog.BookCompleted
	}

	if err := e.catalog.FinishTask(ctx, taskID, status, errorMessage); err != nil {
		e.logger.Error("task_finish_failed", slog.String("task_id", taskID), slog.Any("error", err))
	}
	if err := e.catalog.SetBookDownloadStatus(ctx, book.ID, bookStatus); err != nil {
		e.logger.Error("book_status_finish_failed", slog.String("book_id", book.ID), slog.Any("error", err))
	}
	if err := e.catalog.RecomputeBookDownloadedChapters(ctx, book.ID); err != nil {
		e.logger.Error("book_recompute_failed", slog.String("book_id", book.ID), slog.Any("error", err))
	}

	message := ""
	if errorMessage != nil {
		message = *errorMessage
	}
	e.publishTerminal(taskID, status, book.Title, counters.failed, message)

	e.logger.Info("download_task_finished",
		slog.String("task_id", taskID),
		slog.String("status", string(status)),
		slog.Int("downloaded", counters.downloaded),
		slog.Int("failed", counters.failed),
	)
}

func (e *Engine) finishFailed(ctx context.Context, task *catalog.Task, book *catalog.Book, reason string) {
	if err := e.catalog.FinishTask(ctx, task.ID, catalog.TaskFailed, &reason); err != nil {
		e.logger.Error("task_finish_failed", slog.String("task_id", task.ID), slog.Any("error", err))
	}
	_ = e.catalog.SetBookDownloadStatus(ctx, book.ID, catalog.BookFailed)
	e.publishTerminal(task.ID, catalog.TaskFailed, book.Title, 0, reason)
}

func (e *Engine) publishTerminal(taskID string, status catalog.TaskStatus, bookTitle string, failed int, message string) {
	e.bus.Publish(progressbus.Event{
		Type:      progressbus.EventCompleted,
		TaskID:    taskID,
		Status:    string(status),
		Success:   status == catalog.TaskCompleted,
		Message:   message,
		BookTitle: bookTitle,
		Failed:    failed,
		Timestamp: time.Now(),
	})
}

// Cancel marks a task cancelled. Cooperative: in-flight workers observe the
// cancelled set between chapters, not mid-request.
func (e *Engine) Cancel(ctx context.Context, taskID string) error {
	e.mu.Lock()
	e.cancelled[taskID] = true
	e.mu.Unlock()

	return e.catalog.FinishTask(ctx, taskID, catalog.TaskCancelled, nil)
}

func (e *Engine) isCancelled(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled[taskID]
}

func (e *Engine) clearCancelled(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cancelled, taskID)
}

// RetryFailed flips every failed chapter of a book back to pending and
// creates a new full_download task over the resulting set.
func (e *Engine) RetryFailed(ctx context.Context, bookID string) (*catalog.Task, error) {
	if book, err := e.catalog.GetBook(ctx, bookID); err != nil {
		return nil, err
	} else if book == nil {
		return nil, apperr.NotFound("Book")
	}

	count, err := e.catalog.RetryFailedChapters(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return e.CreateTask(ctx, bookID, catalog.TaskFullDownload, catalog.ChapterRange{}, true)
}

// DownloadChapterWithRetry executes the per-chapter fetch step outside of a
// Task, attempting up to retries times. Used by the Reader Service's
// fetch-on-demand path.
func (e *Engine) DownloadChapterWithRetry(ctx context.Context, book *catalog.Book, chapter *catalog.Chapter, retries int) (bool, error) {
	if retries <= 0 {
		retries = 1
	}

	for attempt := 1; attempt <= retries; attempt++ {
		canDownload, err := e.quota.CanDownload(ctx, book.Provider)
		if err != nil {
			return false, err
		}
		if !canDownload {
			return false, ErrQuotaReached
		}

		wordCount, err := e.fetchAndStoreChapter(ctx, book, chapter)
		if err == nil {
			if _, recErr := e.quota.Record(ctx, book.Provider, int64(wordCount)); recErr != nil {
				e.logger.Warn("quota_record_failed", slog.String("provider", book.Provider), slog.Any("error", recErr))
			}
			if recompErr := e.catalog.RecomputeBookDownloadedChapters(ctx, book.ID); recompErr != nil {
				e.logger.Warn("book_recompute_failed", slog.String("book_id", book.ID), slog.Any("error", recompErr))
			}
			return true, nil
		}

		e.logger.Warn("chapter_retry_attempt_failed",
			slog.String("chapter_id", chapter.ID),
			slog.Int("attempt", attempt),
			slog.Int("retries", retries),
			slog.Any("error", err),
		)
		e.markChapterFailed(ctx, chapter)
	}

	return false, nil
}
