// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import "context"

// Store is the persistence contract for users and their saved books.
type Store interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	Update(ctx context.Context, id, username string) (*User, error)
	Delete(ctx context.Context, id string) (bool, error)

	ListSavedBooks(ctx context.Context, userID string) ([]*SavedBook, error)
	SaveBook(ctx context.Context, userID, bookID string) (*SavedBook, error)
	RemoveSavedBook(ctx context.Context, userID, bookID string) (bool, error)
}
