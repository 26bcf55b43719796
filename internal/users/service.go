// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"context"
	"time"

	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/platform/validate"
	"github.com/qisumi/inkvault/pkg/uuid"
)

// Service implements the bookshelf-owner profile operations of spec §6.
type Service struct {
	store   Store
	catalog *catalog.Service
}

// New constructs a users [Service].
func New(store Store, catalogSvc *catalog.Service) *Service {
	return &Service{store: store, catalog: catalogSvc}
}

// CreateUser registers a new bookshelf owner.
func (s *Service) CreateUser(ctx context.Context, username string) (*User, error) {
	v := &validate.Validator{}
	v.Required("username", username)
	v.MaxLen("username", username, 64)
	if v.HasErrors() {
		return nil, v.Err()
	}

	user := &User{ID: uuid.New(), Username: username, CreatedAt: time.Now()}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns a single user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.store.Get(ctx, id)
}

// ListUsers returns a paginated roster of users.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.store.List(ctx, limit, offset)
}

// UpdateUser renames an existing user.
func (s *Service) UpdateUser(ctx context.Context, id, username string) (*User, error) {
	v := &validate.Validator{}
	v.Required("username", username)
	v.MaxLen("username", username, 64)
	if v.HasErrors() {
		return nil, v.Err()
	}
	return s.store.Update(ctx, id, username)
}

// DeleteUser removes a user and, by cascade, their saved-book rows.
func (s *Service) DeleteUser(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// ListSavedBooks returns every book a user has saved to their bookshelf.
func (s *Service) ListSavedBooks(ctx context.Context, userID string) ([]*SavedBook, error) {
	if _, err := s.store.Get(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListSavedBooks(ctx, userID)
}

// SaveBook adds a book to a user's bookshelf. Saving an already-saved book
// is idempotent.
func (s *Service) SaveBook(ctx context.Context, userID, bookID string) (*SavedBook, error) {
	if _, err := s.store.Get(ctx, userID); err != nil {
		return nil, err
	}
	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperr.NotFound("Book")
	}
	return s.store.SaveBook(ctx, userID, bookID)
}

// RemoveSavedBook removes a book from a user's bookshelf.
func (s *Service) RemoveSavedBook(ctx context.Context, userID, bookID string) (bool, error) {
	return s.store.RemoveSavedBook(ctx, userID, bookID)
}
