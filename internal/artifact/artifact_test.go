// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package artifact_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/artifact"
	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
)

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
func (s *fakeBookStore) UpdateMetadata(context.Context, *catalog.Book) error         { return nil }
func (s *fakeBookStore) UpdateDownloadStatus(context.Context, string, catalog.BookDownloadStatus) error {
	return nil
}
func (s *fakeBookStore) RecomputeDownloadedChapters(context.Context, string) error { return nil }
func (s *fakeBookStore) Delete(context.Context, string) error                     { return nil }

type fakeChapterStore struct {
	mu       sync.Mutex
	chapters []*catalog.Chapter
}

func (s *fakeChapterStore) Create(context.Context, *catalog.Chapter) error      { return nil }
func (s *fakeChapterStore) CreateMany(context.Context, []*catalog.Chapter) error { return nil }
func (s *fakeChapterStore) Get(context.Context, string) (*catalog.Chapter, error) {
	return nil, nil
}
func (s *fakeChapterStore) GetByIndex(context.Context, string, int) (*catalog.Chapter, error) {
	return nil, nil
}
func (s *fakeChapterStore) ListByBook(context.Context, string, int, int) ([]*catalog.Chapter, int, error) {
	return nil, 0, nil
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

func (fakeTaskStore) Create(context.Context, *catalog.Task) error { return nil }
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

func newTestService(t *testing.T, book *catalog.Book, chapters []*catalog.Chapter) (*artifact.Service, *blobstore.Store) {
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

	svc := artifact.New(catalogSvc, blobs, artifact.Metadata{Language: "en", Publisher: "inkvault"}, slog.Default())
	return svc, blobs
}

func waitForStatus(t *testing.T, svc *artifact.Service, bookID string, kind artifact.Kind, want artifact.BuildStatus) artifact.Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := svc.Status(bookID, kind)
		if st.State == want {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status for %s/%s never reached %s", bookID, kind, want)
	return artifact.Status{}
}

func ptr(s string) *string { return &s }

func TestService_EnsureCached_BuildsEPUBThenServesReady(t *testing.T) {
	book := &catalog.Book{ID: "book-1", Title: "A Story", Author: "Jane Doe", DownloadedChapters: 2}

	tmpBlobs, err := blobstore.New(blobstore.Config{BooksDir: t.TempDir() + "/books", EpubsDir: t.TempDir() + "/epubs", TxtsDir: t.TempDir() + "/txts"})
	require.NoError(t, err)
	ref1, err := tmpBlobs.WriteChapter(book.ID, 0, "First line.\n\nSecond line.")
	require.NoError(t, err)
	ref2, err := tmpBlobs.WriteChapter(book.ID, 1, "Chapter two body.")
	require.NoError(t, err)

	chapters := []*catalog.Chapter{
		{ID: "c1", BookID: book.ID, ChapterIndex: 0, Title: "Chapter 1", DownloadStatus: catalog.ChapterCompleted, ContentRef: ptr(ref1)},
		{ID: "c2", BookID: book.ID, ChapterIndex: 1, Title: "Chapter 2", DownloadStatus: catalog.ChapterCompleted, ContentRef: ptr(ref2)},
	}
	svc, _ := newTestService(t, book, chapters)

	status, err := svc.EnsureCached(context.Background(), book, artifact.KindEPUB)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusPending, status.State)

	ready := waitForStatus(t, svc, book.ID, artifact.KindEPUB, artifact.StatusReady)
	assert.NotEmpty(t, ready.Path)
	assert.Equal(t, 2, ready.ChapterCount)

	status2, err := svc.EnsureCached(context.Background(), book, artifact.KindEPUB)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusReady, status2.State)
	assert.Equal(t, ready.Path, status2.Path)
}

func TestService_EnsureCached_RebuildsWhenChapterCountGrows(t *testing.T) {
	book := &catalog.Book{ID: "book-2", Title: "Growing Book", DownloadedChapters: 1}

	tmpBlobs, err := blobstore.New(blobstore.Config{BooksDir: t.TempDir() + "/books", EpubsDir: t.TempDir() + "/epubs", TxtsDir: t.TempDir() + "/txts"})
	require.NoError(t, err)
	ref, err := tmpBlobs.WriteChapter(book.ID, 0, "Only chapter.")
	require.NoError(t, err)

	chapters := []*catalog.Chapter{
		{ID: "c1", BookID: book.ID, ChapterIndex: 0, Title: "Chapter 1", DownloadStatus: catalog.ChapterCompleted, ContentRef: ptr(ref)},
	}
	svc, _ := newTestService(t, book, chapters)

	_, err = svc.EnsureCached(context.Background(), book, artifact.KindTXT)
	require.NoError(t, err)
	waitForStatus(t, svc, book.ID, artifact.KindTXT, artifact.StatusReady)

	book.DownloadedChapters = 2
	status, err := svc.EnsureCached(context.Background(), book, artifact.KindTXT)
	require.NoError(t, err)
	assert.Equal(t, artifact.StatusPending, status.State)
}

func TestBuildTXT_ConcatenatesWithVolumeSeparators(t *testing.T) {
	vol1 := "Volume One"
	chapters := []artifact.ChapterBody{
		{Chapter: &catalog.Chapter{Title: "Chapter 1", VolumeName: &vol1}, Text: "Body one."},
		{Chapter: &catalog.Chapter{Title: "Chapter 2", VolumeName: &vol1}, Text: "Body two."},
	}

	out := string(artifact.BuildTXT(chapters))
	assert.Contains(t, out, "Volume One")
	assert.Contains(t, out, "Chapter 1")
	assert.Contains(t, out, "Body one.")
	assert.Contains(t, out, "Chapter 2")
}

func TestEPUBBuilder_Build_ProducesNonEmptyArchive(t *testing.T) {
	book := &catalog.Book{ID: "book-3", Title: "Epub Book", Author: "Author Name"}
	chapters := []artifact.ChapterBody{
		{Chapter: &catalog.Chapter{ID: "c1", ChapterIndex: 0, Title: "Chapter 1"}, Text: "Hello <world>.\n\nSecond paragraph."},
	}

	data, err := artifact.NewEPUBBuilder(book, chapters, artifact.Metadata{Language: "en"}, nil).Build()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, "PK", string(data[:2]))
}
