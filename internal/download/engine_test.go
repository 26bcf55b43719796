// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/download"
	"github.com/qisumi/inkvault/internal/progressbus"
	"github.com/qisumi/inkvault/internal/quota"
	"github.com/qisumi/inkvault/internal/source"
)

type fakeBookStore struct {
	mu    sync.Mutex
	books map[string]*catalog.Book
}

func newFakeBookStore() *fakeBookStore {
	return &fakeBookStore{books: make(map[string]*catalog.Book)}
}

func (s *fakeBookStore) Create(_ context.Context, b *catalog.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = b
	return nil
}
func (s *fakeBookStore) Get(_ context.Context, id string) (*catalog.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id], nil
}
func (s *fakeBookStore) GetByProvider(context.Context, string, string) (*catalog.Book, error) {
	return nil, nil
}
func (s *fakeBookStore) List(context.Context, catalog.BookFilter, int, int) ([]*catalog.Book, int, error) {
	return nil, 0, nil
}
func (s *fakeBookStore) UpdateMetadata(context.Context, *catalog.Book) error { return nil }
func (s *fakeBookStore) UpdateDownloadStatus(_ context.Context, id string, status catalog.BookDownloadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.books[id]; ok {
		b.DownloadStatus = status
	}
	return nil
}
func (s *fakeBookStore) RecomputeDownloadedChapters(context.Context, string) error { return nil }
func (s *fakeBookStore) Delete(context.Context, string) error                     { return nil }

type fakeChapterStore struct {
	mu       sync.Mutex
	chapters map[string]*catalog.Chapter
}

func newFakeChapterStore() *fakeChapterStore {
	return &fakeChapterStore{chapters: make(map[string]*catalog.Chapter)}
}

func (s *fakeChapterStore) Create(_ context.Context, ch *catalog.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[ch.ID] = ch
	return nil
}
func (s *fakeChapterStore) CreateMany(ctx context.Context, chapters []*catalog.Chapter) error {
	for _, ch := range chapters {
		_ = s.Create(ctx, ch)
	}
	return nil
}
func (s *fakeChapterStore) Get(_ context.Context, id string) (*catalog.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapters[id], nil
}
func (s *fakeChapterStore) GetByIndex(context.Context, string, int) (*catalog.Chapter, error) {
	return nil, nil
}
func (s *fakeChapterStore) ListByBook(context.Context, string, int, int) ([]*catalog.Chapter, int, error) {
	return nil, 0, nil
}
func (s *fakeChapterStore) ListForProcessing(_ context.Context, bookID string, r catalog.ChapterRange, statuses []catalog.ChapterDownloadStatus) ([]*catalog.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed := make(map[catalog.ChapterDownloadStatus]bool, len(statuses))
	for _, st := range statuses {
		allowed[st] = true
	}

	var out []*catalog.Chapter
	for _, ch := range s.chapters {
		if ch.BookID != bookID {
			continue
		}
		if len(statuses) > 0 && !allowed[ch.DownloadStatus] {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}
func (s *fakeChapterStore) MaxIndex(context.Context, string) (int, bool, error) { return 0, false, nil }
func (s *fakeChapterStore) CountByStatus(_ context.Context, bookID string, status catalog.ChapterDownloadStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, ch := range s.chapters {
		if ch.BookID == bookID && ch.DownloadStatus == status {
			count++
		}
	}
	return count, nil
}
func (s *fakeChapterStore) SetDownloading(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chapters[id]; ok {
		ch.DownloadStatus = catalog.ChapterDownloading
	}
	return nil
}
func (s *fakeChapterStore) SetCompleted(_ context.Context, id, _ string, contentRef string, wordCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chapters[id]; ok {
		ch.DownloadStatus = catalog.ChapterCompleted
		ch.ContentRef = &contentRef
		ch.WordCount = wordCount
	}
	return nil
}
func (s *fakeChapterStore) SetFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chapters[id]; ok {
		ch.DownloadStatus = catalog.ChapterFailed
	}
	return nil
}
func (s *fakeChapterStore) ResetToPending(context.Context, string, catalog.ChapterRange) error {
	return nil
}
func (s *fakeChapterStore) ResetFailedToPending(context.Context, string) error { return nil }

type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[string]*catalog.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[string]*catalog.Task)}
}

func (s *fakeTaskStore) Create(_ context.Context, t *catalog.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}
func (s *fakeTaskStore) Get(_ context.Context, id string) (*catalog.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id], nil
}
func (s *fakeTaskStore) ListByBook(context.Context, string, int, int) ([]*catalog.Task, int, error) {
	return nil, 0, nil
}
func (s *fakeTaskStore) LatestActiveByBook(context.Context, string) (*catalog.Task, error) {
	return nil, nil
}
func (s *fakeTaskStore) List(context.Context, int, int) ([]*catalog.Task, int, error) {
	return nil, 0, nil
}
func (s *fakeTaskStore) SetTotal(_ context.Context, id string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Total = total
	}
	return nil
}
func (s *fakeTaskStore) MarkRunning(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Status = catalog.TaskRunning
	}
	return nil
}
func (s *fakeTaskStore) UpdateCounters(_ context.Context, id string, downloaded, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Downloaded = downloaded
		t.Failed = failed
	}
	return nil
}
func (s *fakeTaskStore) MarkTerminal(_ context.Context, id string, status catalog.TaskStatus, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.Status = status
		t.ErrorMessage = errMsg
	}
	return nil
}

type fakeQuotaStore struct {
	mu   sync.Mutex
	rows map[string]int64
}

func newFakeQuotaStore() *fakeQuotaStore { return &fakeQuotaStore{rows: make(map[string]int64)} }

func (s *fakeQuotaStore) Get(_ context.Context, date time.Time, provider string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[date.String()+provider]
	return v, ok, nil
}
func (s *fakeQuotaStore) Add(_ context.Context, date time.Time, provider string, words, _ int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := date.String() + provider
	s.rows[k] += words
	return s.rows[k], nil
}

type fakeSourceClient struct {
	provider string
	content  map[string]string
}

func (c *fakeSourceClient) Provider() string { return c.provider }
func (c *fakeSourceClient) Search(context.Context, string, int) (*source.SearchResult, error) {
	return nil, nil
}
func (c *fakeSourceClient) GetBookDetail(context.Context, string) (*source.BookDetail, error) {
	return nil, nil
}
func (c *fakeSourceClient) GetChapterList(context.Context, string) (*source.ChapterListResult, error) {
	return nil, nil
}
func (c *fakeSourceClient) GetChapterContent(_ context.Context, itemID, _ string) (*source.ChapterContent, error) {
	text, ok := c.content[itemID]
	if !ok {
		return nil, &source.ChapterNotFoundError{Provider: c.provider, ItemID: itemID}
	}
	return &source.ChapterContent{Content: text}, nil
}

func newTestEngine(t *testing.T, books *fakeBookStore, chapters *fakeChapterStore, tasks *fakeTaskStore, client source.SourceClient) (*download.Engine, *progressbus.Bus) {
	t.Helper()

	logger := slog.Default()
	catalogSvc := catalog.NewService(books, chapters, tasks, logger)
	blobs, err := blobstore.New(blobstore.Config{BooksDir: t.TempDir(), EpubsDir: t.TempDir(), TxtsDir: t.TempDir()})
	require.NoError(t, err)

	ledger := quota.New(newFakeQuotaStore(), 1_000_000, nil)
	registry := source.NewRegistry(client)
	bus := progressbus.New(logger)

	engine := download.New(catalogSvc, blobs, ledger, registry, bus, download.Config{ConcurrentDownloads: 2}, logger)
	return engine, bus
}

func TestEngine_Execute_AllSucceed(t *testing.T) {
	books := newFakeBookStore()
	chapters := newFakeChapterStore()
	tasks := newFakeTaskStore()

	book := &catalog.Book{ID: "book-1", Provider: "fanqie", ProviderBookID: "p1", Title: "Test Book", DownloadStatus: catalog.BookPending}
	require.NoError(t, books.Create(context.Background(), book))

	ch1 := &catalog.Chapter{ID: "ch-1", BookID: "book-1", ItemID: "item-1", ChapterIndex: 0, DownloadStatus: catalog.ChapterPending}
	ch2 := &catalog.Chapter{ID: "ch-2", BookID: "book-1", ItemID: "item-2", ChapterIndex: 1, DownloadStatus: catalog.ChapterPending}
	require.NoError(t, chapters.Create(context.Background(), ch1))
	require.NoError(t, chapters.Create(context.Background(), ch2))

	client := &fakeSourceClient{provider: "fanqie", content: map[string]string{"item-1": "hello world", "item-2": "second chapter"}}
	engine, _ := newTestEngine(t, books, chapters, tasks, client)

	task := &catalog.Task{ID: "task-1", BookID: "book-1", Type: catalog.TaskFullDownload, Status: catalog.TaskPending, Total: 2}
	require.NoError(t, tasks.Create(context.Background(), task))

	engine.Execute(context.Background(), "task-1", true, catalog.ChapterRange{})

	finished, err := tasks.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.TaskCompleted, finished.Status)
	assert.Equal(t, 2, finished.Downloaded)
	assert.Equal(t, 0, finished.Failed)

	updatedBook, _ := books.Get(context.Background(), "book-1")
	assert.Equal(t, catalog.BookCompleted, updatedBook.DownloadStatus)

	assert.Equal(t, catalog.ChapterCompleted, ch1.DownloadStatus)
	assert.Equal(t, catalog.ChapterCompleted, ch2.DownloadStatus)
}

func TestEngine_Execute_PartialFailure(t *testing.T) {
	books := newFakeBookStore()
	chapters := newFakeChapterStore()
	tasks := newFakeTaskStore()

	book := &catalog.Book{ID: "book-1", Provider: "fanqie", ProviderBookID: "p1", Title: "Test Book"}
	require.NoError(t, books.Create(context.Background(), book))

	ch1 := &catalog.Chapter{ID: "ch-1", BookID: "book-1", ItemID: "item-1", ChapterIndex: 0, DownloadStatus: catalog.ChapterPending}
	ch2 := &catalog.Chapter{ID: "ch-2", BookID: "book-1", ItemID: "missing", ChapterIndex: 1, DownloadStatus: catalog.ChapterPending}
	require.NoError(t, chapters.Create(context.Background(), ch1))
	require.NoError(t, chapters.Create(context.Background(), ch2))

	client := &fakeSourceClient{provider: "fanqie", content: map[string]string{"item-1": "hello world"}}
	engine, _ := newTestEngine(t, books, chapters, tasks, client)

	task := &catalog.Task{ID: "task-1", BookID: "book-1", Type: catalog.TaskFullDownload, Status: catalog.TaskPending, Total: 2}
	require.NoError(t, tasks.Create(context.Background(), task))

	engine.Execute(context.Background(), "task-1", true, catalog.ChapterRange{})

	finished, err := tasks.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.TaskFailed, finished.Status)
	require.NotNil(t, finished.ErrorMessage)
	assert.Contains(t, *finished.ErrorMessage, "1")

	updatedBook, _ := books.Get(context.Background(), "book-1")
	assert.Equal(t, catalog.BookFailed, updatedBook.DownloadStatus)
}

func TestEngine_Cancel_MarksTaskCancelled(t *testing.T) {
	books := newFakeBookStore()
	chapters := newFakeChapterStore()
	tasks := newFakeTaskStore()

	book := &catalog.Book{ID: "book-1", Provider: "fanqie", ProviderBookID: "p1", Title: "Test Book"}
	require.NoError(t, books.Create(context.Background(), book))

	task := &catalog.Task{ID: "task-1", BookID: "book-1", Type: catalog.TaskFullDownload, Status: catalog.TaskPending}
	require.NoError(t, tasks.Create(context.Background(), task))

	client := &fakeSourceClient{provider: "fanqie", content: map[string]string{}}
	engine, _ := newTestEngine(t, books, chapters, tasks, client)

	require.NoError(t, engine.Cancel(context.Background(), "task-1"))

	finished, err := tasks.Get(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, catalog.TaskCancelled, finished.Status)
}

func TestEngine_DownloadChapterWithRetry_Success(t *testing.T) {
	books := newFakeBookStore()
	chapters := newFakeChapterStore()
	tasks := newFakeTaskStore()

	book := &catalog.Book{ID: "book-1", Provider: "fanqie", ProviderBookID: "p1", Title: "Test Book"}
	chapter := &catalog.Chapter{ID: "ch-1", BookID: "book-1", ItemID: "item-1", ChapterIndex: 0, DownloadStatus: catalog.ChapterPending}
	require.NoError(t, chapters.Create(context.Background(), chapter))

	client := &fakeSourceClient{provider: "fanqie", content: map[string]string{"item-1": "content"}}
	engine, _ := newTestEngine(t, books, chapters, tasks, client)

	ok, err := engine.DownloadChapterWithRetry(context.Background(), book, chapter, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, catalog.ChapterCompleted, chapter.DownloadStatus)
}

func TestEngine_DownloadChapterWithRetry_ExhaustsRetries(t *testing.T) {
	books := newFakeBookStore()
	chapters := newFakeChapterStore()
	tasks := newFakeTaskStore()

	book := &catalog.Book{ID: "book-1", Provider: "fanqie", ProviderBookID: "p1", Title: "Test Book"}
	chapter := &catalog.Chapter{ID: "ch-1", BookID: "book-1", ItemID: "missing", ChapterIndex: 0, DownloadStatus: catalog.ChapterPending}
	require.NoError(t, chapters.Create(context.Background(), chapter))

	client := &fakeSourceClient{provider: "fanqie", content: map[string]string{}}
	engine, _ := newTestEngine(t, books, chapters, tasks, client)

	ok, err := engine.DownloadChapterWithRetry(context.Background(), book, chapter, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, catalog.ChapterFailed, chapter.DownloadStatus)
}
