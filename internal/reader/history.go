// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import "context"

const historyMaxLimit = 1000

// ListHistory returns a user's reading-history entries for a book, newest
// first, capped at 1000 regardless of the requested limit.
func (s *Service) ListHistory(ctx context.Context, userID, bookID string, limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}
	return s.store.ListHistory(ctx, userID, bookID, limit)
}

// ClearHistory deletes every history entry for a user/book pair, returning
// the number of rows removed.
func (s *Service) ClearHistory(ctx context.Context, userID, bookID string) (int, error) {
	return s.store.ClearHistory(ctx, userID, bookID)
}
