// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/reader"
)

// # Catalog fakes

type fakeBookStore struct {
	mu    sync.Mutex
	books map[string]*catalog.Book
}

func (s *fakeBookStore) Create(context.Context, *catalog.Book) error { return nil }
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
func (s *fakeBookStore) UpdateMetadata(_ context.Context, book *catalog.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = book
	return nil
}
func (s *fakeBookStore) UpdateDownloadStatus(context.Context, string, catalog.BookDownloadStatus) error {
	return nil
}
func (s *fakeBookStore) RecomputeDownloadedChapters(context.Context, string) error { return nil }
func (s *fakeBookStore) Delete(context.Context, string) error                     { return nil }

type fakeChapterStore struct {
	mu       sync.Mutex
	chapters []*catalog.Chapter
}

func (s *fakeChapterStore) Create(context.Context, *catalog.Chapter) error { return nil }
func (s *fakeChapterStore) CreateMany(_ context.Context, chapters []*catalog.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters = append(s.chapters, chapters...)
	return nil
}
func (s *fakeChapterStore) Get(_ context.Context, id string) (*catalog.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chapters {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, nil
}
func (s *fakeChapterStore) GetByIndex(_ context.Context, bookID string, index int) (*catalog.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chapters {
		if ch.BookID == bookID && ch.ChapterIndex == index {
			return ch, nil
		}
	}
	return nil, nil
}
func (s *fakeChapterStore) ListByBook(_ context.Context, bookID string, limit, offset int) ([]*catalog.Chapter, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*catalog.Chapter
	for _, ch := range s.chapters {
		if ch.BookID == bookID {
			matched = append(matched, ch)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
func (s *fakeChapterStore) ListForProcessing(_ context.Context, bookID string, _ catalog.ChapterRange, statuses []catalog.ChapterDownloadStatus) ([]*catalog.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*catalog.Chapter
	for _, ch := range s.chapters {
		if ch.BookID != bookID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, ch.DownloadStatus) {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}
func (s *fakeChapterStore) MaxIndex(context.Context, string) (int, bool, error) { return 0, false, nil }
func (s *fakeChapterStore) CountByStatus(context.Context, string, catalog.ChapterDownloadStatus) (int, error) {
	return 0, nil
}
func (s *fakeChapterStore) SetDownloading(context.Context, string) error { return nil }
func (s *fakeChapterStore) SetCompleted(context.Context, string, string, string, int) error {
	return nil
}
func (s *fakeChapterStore) SetFailed(context.Context, string) error                        { return nil }
func (s *fakeChapterStore) ResetToPending(context.Context, string, catalog.ChapterRange) error { return nil }
func (s *fakeChapterStore) ResetFailedToPending(context.Context, string) error              { return nil }

func containsStatus(statuses []catalog.ChapterDownloadStatus, status catalog.ChapterDownloadStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeTaskStore struct{}

func (fakeTaskStore) Create(context.Context, *catalog.Task) error       { return nil }
func (fakeTaskStore) Get(context.Context, string) (*catalog.Task, error) { return nil, nil }
func (fakeTaskStore) ListByBook(context.Context, string, int, int) ([]*catalog.Task, int, error) {
	return nil, 0, nil
}
func (fakeTaskStore) LatestActiveByBook(context.Context, string) (*catalog.Task, error) {
	return nil, nil
}
func (fakeTaskStore) List(context.Context, int, int) ([]*catalog.Task, int, error) { return nil, 0, nil }
func (fakeTaskStore) SetTotal(context.Context, string, int) error                  { return nil }
func (fakeTaskStore) MarkRunning(context.Context, string) error                    { return nil }
func (fakeTaskStore) UpdateCounters(context.Context, string, int, int) error        { return nil }
func (fakeTaskStore) MarkTerminal(context.Context, string, catalog.TaskStatus, *string) error {
	return nil
}

// # Reader store fake

type fakeReaderStore struct {
	mu        sync.Mutex
	progress  map[string]*reader.Progress // key: userID+"|"+bookID
	history   []*reader.HistoryEntry
	bookmarks map[string]*reader.Bookmark
	nextID    int
}

func newFakeReaderStore() *fakeReaderStore {
	return &fakeReaderStore{
		progress:  make(map[string]*reader.Progress),
		bookmarks: make(map[string]*reader.Bookmark),
	}
}

func (s *fakeReaderStore) id() string {
	s.nextID++
	return "id-" + string(rune('a'+s.nextID))
}

func (s *fakeReaderStore) GetProgress(_ context.Context, userID, bookID, deviceID string) (*reader.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[userID+"|"+bookID]
	if !ok {
		return nil, nil
	}
	if deviceID != "" && p.DeviceID != deviceID {
		return nil, nil
	}
	return p, nil
}

func (s *fakeReaderStore) ListDeviceProgress(ctx context.Context, userID, bookID string) ([]*reader.Progress, error) {
	p, err := s.GetProgress(ctx, userID, bookID, "")
	if err != nil || p == nil {
		return nil, err
	}
	return []*reader.Progress{p}, nil
}

func (s *fakeReaderStore) UpsertProgress(_ context.Context, p *reader.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.id()
	}
	s.progress[p.UserID+"|"+p.BookID] = p
	return nil
}

func (s *fakeReaderStore) DeleteProgress(_ context.Context, userID, bookID, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := userID + "|" + bookID
	if _, ok := s.progress[key]; !ok {
		return false, nil
	}
	delete(s.progress, key)
	return true, nil
}

func (s *fakeReaderStore) AppendHistory(_ context.Context, h *reader.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, h)
	return nil
}

func (s *fakeReaderStore) ListHistory(_ context.Context, userID, bookID string, limit int) ([]*reader.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reader.HistoryEntry
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		h := s.history[i]
		if h.UserID == userID && h.BookID == bookID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeReaderStore) ClearHistory(_ context.Context, userID, bookID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*reader.HistoryEntry
	removed := 0
	for _, h := range s.history {
		if h.UserID == userID && h.BookID == bookID {
			removed++
			continue
		}
		kept = append(kept, h)
	}
	s.history = kept
	return removed, nil
}

func (s *fakeReaderStore) CreateBookmark(_ context.Context, b *reader.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = s.id()
	}
	s.bookmarks[b.ID] = b
	return nil
}

func (s *fakeReaderStore) ListBookmarks(_ context.Context, userID, bookID string) ([]*reader.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reader.Bookmark
	for _, b := range s.bookmarks {
		if b.UserID == userID && b.BookID == bookID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeReaderStore) GetBookmark(_ context.Context, id string) (*reader.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookmarks[id], nil
}

func (s *fakeReaderStore) UpdateBookmark(_ context.Context, b *reader.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[b.ID] = b
	return nil
}

func (s *fakeReaderStore) DeleteBookmark(_ context.Context, userID, bookID, bookmarkID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[bookmarkID]
	if !ok || b.UserID != userID || b.BookID != bookID {
		return false, nil
	}
	delete(s.bookmarks, bookmarkID)
	return true, nil
}

// # Test setup

func newTestService(t *testing.T, book *catalog.Book, chapters []*catalog.Chapter) (*reader.Service, *blobstore.Store) {
	t.Helper()

	books := &fakeBookStore{books: map[string]*catalog.Book{book.ID: book}}
	chapterStore := &fakeChapterStore{chapters: chapters}
	catalogSvc := catalog.NewService(books, chapterStore, fakeTaskStore{}, slog.Default())

	dir := t.TempDir()
	blobs, err := blobstore.New(blobstore.Config{
		BooksDir: dir + "/books",
		EpubsDir: dir + "/epubs",
		TxtsDir:  dir + "/txts",
	})
	require.NoError(t, err)

	svc := reader.New(newFakeReaderStore(), catalogSvc, blobs, nil, nil, slog.Default())
	return svc, blobs
}

func ptr(s string) *string { return &s }

// # Tests

func TestService_GetTOC_AnchorRepositionsPage(t *testing.T) {
	book := &catalog.Book{ID: "book-1", Title: "Anchor Book"}
	chapters := make([]*catalog.Chapter, 0, 120)
	for i := 0; i < 120; i++ {
		chapters = append(chapters, &catalog.Chapter{
			ID: "ch-" + string(rune('a'+i%26)) + string(rune('0'+i/26)), BookID: book.ID, ChapterIndex: i, Title: "Chapter",
		})
	}
	svc, _ := newTestService(t, book, chapters)

	anchor := chapters[75]
	page, err := svc.GetTOC(context.Background(), book.ID, 1, 50, anchor.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 120, page.Total)
}

func TestService_GetChapterContent_ReadyFromCache(t *testing.T) {
	book := &catalog.Book{ID: "book-2", Title: "Cached Book"}
	tmpBlobs, err := blobstore.New(blobstore.Config{BooksDir: t.TempDir() + "/books", EpubsDir: t.TempDir() + "/epubs", TxtsDir: t.TempDir() + "/txts"})
	require.NoError(t, err)
	ref, err := tmpBlobs.WriteChapter(book.ID, 0, "First line.\n\nSecond line.")
	require.NoError(t, err)

	chapters := []*catalog.Chapter{
		{ID: "c1", BookID: book.ID, ChapterIndex: 0, Title: "Chapter 1", DownloadStatus: catalog.ChapterCompleted, ContentRef: ptr(ref)},
		{ID: "c2", BookID: book.ID, ChapterIndex: 1, Title: "Chapter 2", DownloadStatus: catalog.ChapterPending},
	}
	svc, _ := newTestService(t, book, chapters)

	content, err := svc.GetChapterContent(context.Background(), book.ID, "c1", reader.FormatHTML, reader.FetchRangeNone, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, reader.ContentReady, content.Status)
	assert.Contains(t, content.ContentHTML, "First line.")
	assert.Contains(t, content.ContentHTML, "<p>&nbsp;</p>")
	require.NotNil(t, content.NextID)
	assert.Equal(t, "c2", *content.NextID)
	assert.Nil(t, content.PrevID)
}

func TestService_UpsertProgress_ClampsAndRecordsHistory(t *testing.T) {
	book := &catalog.Book{ID: "book-3", Title: "Progress Book"}
	svc, _ := newTestService(t, book, nil)

	progress, err := svc.UpsertProgress(context.Background(), "user-1", book.ID, "chapter-1", "device-a", -5, 150)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.OffsetPx)
	assert.Equal(t, 100.0, progress.Percent)

	history, err := svc.ListHistory(context.Background(), "user-1", book.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "chapter-1", history[0].ChapterID)

	got, err := svc.GetProgress(context.Background(), "user-1", book.ID, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "device-a", got.DeviceID)
}

func TestService_AddBookmark_RejectsChapterFromAnotherBook(t *testing.T) {
	book := &catalog.Book{ID: "book-4", Title: "Bookmark Book"}
	other := &catalog.Chapter{ID: "foreign-chapter", BookID: "other-book", ChapterIndex: 0, Title: "Foreign"}
	svc, _ := newTestService(t, book, []*catalog.Chapter{other})

	_, err := svc.AddBookmark(context.Background(), "user-1", book.ID, other.ID, 50, nil)
	assert.Error(t, err)
}

func TestService_AddBookmark_ThenDelete(t *testing.T) {
	book := &catalog.Book{ID: "book-5", Title: "Bookmark Book"}
	chapter := &catalog.Chapter{ID: "c1", BookID: book.ID, ChapterIndex: 0, Title: "Chapter 1"}
	svc, _ := newTestService(t, book, []*catalog.Chapter{chapter})

	bookmark, err := svc.AddBookmark(context.Background(), "user-1", book.ID, chapter.ID, 42, ptr("nice spot"))
	require.NoError(t, err)
	assert.Equal(t, 42.0, bookmark.Percent)

	found, err := svc.DeleteBookmark(context.Background(), "user-1", book.ID, bookmark.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.DeleteBookmark(context.Background(), "user-1", book.ID, bookmark.ID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestService_ListHistory_CapsAtMax(t *testing.T) {
	book := &catalog.Book{ID: "book-6", Title: "History Book"}
	svc, _ := newTestService(t, book, nil)

	for i := 0; i < 5; i++ {
		_, err := svc.UpsertProgress(context.Background(), "user-1", book.ID, "chapter-1", "device-a", 0, float64(i))
		require.NoError(t, err)
	}

	history, err := svc.ListHistory(context.Background(), "user-1", book.ID, 2000)
	require.NoError(t, err)
	assert.Len(t, history, 5)

	removed, err := svc.ClearHistory(context.Background(), "user-1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, removed)
}
