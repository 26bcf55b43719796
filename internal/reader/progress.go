// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"context"
	"log/slog"
	"time"

	"github.com/qisumi/inkvault/internal/platform/validate"
)

// GetProgress returns a user's reading position for a book. When deviceID
// is empty, it returns the single cross-device row (the latest write
// wins); otherwise it returns that row only if deviceID wrote it last.
func (s *Service) GetProgress(ctx context.Context, userID, bookID, deviceID string) (*Progress, error) {
	return s.store.GetProgress(ctx, userID, bookID, deviceID)
}

// ListDeviceProgress returns the progress rows for a user/book pair, newest
// first. Progress is kept as one cross-device row per (user, book), so the
// list holds at most one row.
func (s *Service) ListDeviceProgress(ctx context.Context, userID, bookID string) ([]*Progress, error) {
	return s.store.ListDeviceProgress(ctx, userID, bookID)
}

// UpsertProgress updates or inserts the single cross-device progress row
// and appends a History entry, per §4.7's cross-device sync contract.
// percent is clamped to [0,100] and offsetPx to >= 0.
func (s *Service) UpsertProgress(ctx context.Context, userID, bookID, chapterID, deviceID string, offsetPx int, percent float64) (*Progress, error) {
	v := &validate.Validator{}
	v.Required(FieldUserID, userID)
	v.Required(FieldBookID, bookID)
	v.Required(FieldChapterID, chapterID)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if offsetPx < 0 {
		offsetPx = 0
	}
	percent = clampPercent(percent)
	now := time.Now()

	existing, err := s.store.GetProgress(ctx, userID, bookID, "")
	if err != nil {
		return nil, err
	}

	progress := existing
	if progress == nil {
		progress = &Progress{UserID: userID, BookID: bookID}
	}
	progress.ChapterID = chapterID
	progress.DeviceID = deviceID
	progress.OffsetPx = offsetPx
	progress.Percent = percent
	progress.UpdatedAt = now

	if err := s.store.UpsertProgress(ctx, progress); err != nil {
		return nil, err
	}

	history := &HistoryEntry{
		UserID:    userID,
		BookID:    bookID,
		ChapterID: chapterID,
		DeviceID:  deviceID,
		Percent:   percent,
		CreatedAt: now,
	}
	if err := s.store.AppendHistory(ctx, history); err != nil {
		s.logger.Warn("history_append_failed", slog.String("user_id", userID), slog.String("book_id", bookID), slog.Any("error", err))
	}

	return progress, nil
}

// ClearProgress deletes the sync row (if deviceID is given, only when that
// device wrote it last). Returns false if no row was deleted.
func (s *Service) ClearProgress(ctx context.Context, userID, bookID, deviceID string) (bool, error) {
	return s.store.DeleteProgress(ctx, userID, bookID, deviceID)
}
