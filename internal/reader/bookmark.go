// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"context"
	"time"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/platform/validate"
)

// ListBookmarks returns every bookmark a user has placed in a book,
// newest first.
func (s *Service) ListBookmarks(ctx context.Context, userID, bookID string) ([]*Bookmark, error) {
	return s.store.ListBookmarks(ctx, userID, bookID)
}

// AddBookmark creates a bookmark, verifying the chapter belongs to the book.
func (s *Service) AddBookmark(ctx context.Context, userID, bookID, chapterID string, percent float64, note *string) (*Bookmark, error) {
	v := &validate.Validator{}
	v.Required(FieldUserID, userID)
	v.Required(FieldBookID, bookID)
	v.Required(FieldChapterID, chapterID)
	if err := v.Err(); err != nil {
		return nil, err
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperr.NotFound("Book")
	}
	chapter, err := s.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter == nil || chapter.BookID != bookID {
		return nil, apperr.NotFound("Chapter")
	}

	bookmark := &Bookmark{
		UserID:    userID,
		BookID:    bookID,
		ChapterID: chapterID,
		Percent:   clampPercent(percent),
		Note:      note,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateBookmark(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

// GetBookmark retrieves a single bookmark by ID.
func (s *Service) GetBookmark(ctx context.Context, id string) (*Bookmark, error) {
	bookmark, err := s.store.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	if bookmark == nil {
		return nil, apperr.NotFound("Bookmark")
	}
	return bookmark, nil
}

// UpdateBookmark applies a partial update (note and/or percent) to an
// existing bookmark.
func (s *Service) UpdateBookmark(ctx context.Context, id string, note *string, percent *float64) (*Bookmark, error) {
	bookmark, err := s.GetBookmark(ctx, id)
	if err != nil {
		return nil, err
	}
	if note != nil {
		bookmark.Note = note
	}
	if percent != nil {
		bookmark.Percent = clampPercent(*percent)
	}
	if err := s.store.UpdateBookmark(ctx, bookmark); err != nil {
		return nil, err
	}
	return bookmark, nil
}

// DeleteBookmark removes a bookmark owned by userID within bookID.
// Returns false if no matching bookmark was found.
func (s *Service) DeleteBookmark(ctx context.Context, userID, bookID, bookmarkID string) (bool, error) {
	return s.store.DeleteBookmark(ctx, userID, bookID, bookmarkID)
}
