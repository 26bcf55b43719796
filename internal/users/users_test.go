// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/users"
	"github.com/qisumi/inkvault/pkg/uuid"
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
func (s *fakeBookStore) UpdateMetadata(context.Context, *catalog.Book) error        { return nil }
func (s *fakeBookStore) UpdateDownloadStatus(context.Context, string, catalog.BookDownloadStatus) error {
	return nil
}
func (s *fakeBookStore) RecomputeDownloadedChapters(context.Context, string) error { return nil }
func (s *fakeBookStore) Delete(context.Context, string) error                     { return nil }

type fakeChapterStore struct{}

func (s *fakeChapterStore) Create(context.Context, *catalog.Chapter) error       { return nil }
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
func (s *fakeChapterStore) ListForProcessing(context.Context, string, catalog.ChapterRange, []catalog.ChapterDownloadStatus) ([]*catalog.Chapter, error) {
	return nil, nil
}
func (s *fakeChapterStore) MaxIndex(context.Context, string) (int, bool, error) {
	return 0, false, nil
}
func (s *fakeChapterStore) CountByStatus(context.Context, string, catalog.ChapterDownloadStatus) (int, error) {
	return 0, nil
}
func (s *fakeChapterStore) SetDownloading(context.Context, string) error { return nil }
func (s *fakeChapterStore) SetCompleted(context.Context, string, string, string, int) error {
	return nil
}
func (s *fakeChapterStore) SetFailed(context.Context, string) error { return nil }
func (s *fakeChapterStore) ResetToPending(context.Context, string, catalog.ChapterRange) error {
	return nil
}
func (s *fakeChapterStore) ResetFailedToPending(context.Context, string) error { return nil }

type fakeTaskStore struct{}

func (s *fakeTaskStore) Create(context.Context, *catalog.Task) error { return nil }
func (s *fakeTaskStore) Get(context.Context, string) (*catalog.Task, error) {
	return nil, nil
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
func (s *fakeTaskStore) SetTotal(context.Context, string, int) error    { return nil }
func (s *fakeTaskStore) MarkRunning(context.Context, string) error     { return nil }
func (s *fakeTaskStore) UpdateCounters(context.Context, string, int, int) error {
	return nil
}
func (s *fakeTaskStore) MarkTerminal(context.Context, string, catalog.TaskStatus, *string) error {
	return nil
}

type fakeUsersStore struct {
	mu         sync.Mutex
	usersByID  map[string]*users.User
	savedBooks map[string][]*users.SavedBook
}

func newFakeUsersStore() *fakeUsersStore {
	return &fakeUsersStore{usersByID: map[string]*users.User{}, savedBooks: map[string][]*users.SavedBook{}}
}

func (s *fakeUsersStore) Create(_ context.Context, user *users.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByID[user.ID] = user
	return nil
}
func (s *fakeUsersStore) Get(_ context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usersByID[id], nil
}
func (s *fakeUsersStore) GetByUsername(_ context.Context, username string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.usersByID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}
func (s *fakeUsersStore) List(context.Context, int, int) ([]*users.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*users.User, 0, len(s.usersByID))
	for _, u := range s.usersByID {
		list = append(list, u)
	}
	return list, len(list), nil
}
func (s *fakeUsersStore) Update(_ context.Context, id, username string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[id]
	if !ok {
		return nil, nil
	}
	u.Username = username
	return u, nil
}
func (s *fakeUsersStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByID[id]; !ok {
		return false, nil
	}
	delete(s.usersByID, id)
	return true, nil
}
func (s *fakeUsersStore) ListSavedBooks(_ context.Context, userID string) ([]*users.SavedBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedBooks[userID], nil
}
func (s *fakeUsersStore) SaveBook(_ context.Context, userID, bookID string) (*users.SavedBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := &users.SavedBook{ID: uuid.New(), UserID: userID, BookID: bookID, CreatedAt: time.Now()}
	s.savedBooks[userID] = append(s.savedBooks[userID], saved)
	return saved, nil
}
func (s *fakeUsersStore) RemoveSavedBook(_ context.Context, userID, bookID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.savedBooks[userID]
	for i, b := range list {
		if b.BookID == bookID {
			s.savedBooks[userID] = append(list[:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func newTestService(book *catalog.Book) *users.Service {
	bookStore := &fakeBookStore{books: map[string]*catalog.Book{book.ID: book}}
	catalogSvc := catalog.NewService(bookStore, &fakeChapterStore{}, &fakeTaskStore{}, slog.Default())
	return users.New(newFakeUsersStore(), catalogSvc)
}

func TestService_CreateUser_RejectsBlankUsername(t *testing.T) {
	svc := newTestService(&catalog.Book{ID: uuid.New()})
	_, err := svc.CreateUser(context.Background(), "   ")
	require.Error(t, err)
}

func TestService_CreateUser_ThenSaveBook(t *testing.T) {
	book := &catalog.Book{ID: uuid.New(), Title: "Sample"}
	svc := newTestService(book)

	user, err := svc.CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	saved, err := svc.SaveBook(context.Background(), user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, saved.BookID)

	books, err := svc.ListSavedBooks(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)

	removed, err := svc.RemoveSavedBook(context.Background(), user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestService_SaveBook_RejectsUnknownBook(t *testing.T) {
	svc := newTestService(&catalog.Book{ID: uuid.New()})
	user, err := svc.CreateUser(context.Background(), "bob")
	require.NoError(t, err)

	_, err = svc.SaveBook(context.Background(), user.ID, uuid.New())
	require.Error(t, err)
}
