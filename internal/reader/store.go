// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import "context"

// Store persists reading Progress, Bookmark, and HistoryEntry rows.
type Store interface {
	GetProgress(ctx context.Context, userID, bookID, deviceID string) (*Progress, error)
	ListDeviceProgress(ctx context.Context, userID, bookID string) ([]*Progress, error)
	UpsertProgress(ctx context.Context, p *Progress) error
	DeleteProgress(ctx context.Context, userID, bookID, deviceID string) (bool, error)

	AppendHistory(ctx context.Context, h *HistoryEntry) error
	ListHistory(ctx context.Context, userID, bookID string, limit int) ([]*HistoryEntry, error)
	ClearHistory(ctx context.Context, userID, bookID string) (int, error)

	CreateBookmark(ctx context.Context, b *Bookmark) error
	ListBookmarks(ctx context.Context, userID, bookID string) ([]*Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*Bookmark, error)
	UpdateBookmark(ctx context.Context, b *Bookmark) error
	DeleteBookmark(ctx context.Context, userID, bookID, bookmarkID string) (bool, error)
}
