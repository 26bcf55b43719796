// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ReaderProgressTable represents the 'reader.progress' table: one
// cross-device row per (user, book).
type ReaderProgressTable struct {
	Table     string
	ID        string
	UserID    string
	BookID    string
	ChapterID string
	DeviceID  string
	OffsetPx  string
	Percent   string
	UpdatedAt string
}

// ReaderProgress is the schema definition for reader.progress.
var ReaderProgress = ReaderProgressTable{
	Table:     "reader.progress",
	ID:        "id",
	UserID:    "user_id",
	BookID:    "book_id",
	ChapterID: "chapter_id",
	DeviceID:  "device_id",
	OffsetPx:  "offset_px",
	Percent:   "percent",
	UpdatedAt: "updated_at",
}

func (t ReaderProgressTable) Columns() []string {
	return []string{t.ID, t.UserID, t.BookID, t.ChapterID, t.DeviceID, t.OffsetPx, t.Percent, t.UpdatedAt}
}

// ReaderBookmarkTable represents the 'reader.bookmark' table: many per (user, book).
type ReaderBookmarkTable struct {
	Table     string
	ID        string
	UserID    string
	BookID    string
	ChapterID string
	Percent   string
	Note      string
	CreatedAt string
}

// ReaderBookmark is the schema definition for reader.bookmark.
var ReaderBookmark = ReaderBookmarkTable{
	Table:     "reader.bookmark",
	ID:        "id",
	UserID:    "user_id",
	BookID:    "book_id",
	ChapterID: "chapter_id",
	Percent:   "percent",
	Note:      "note",
	CreatedAt: "created_at",
}

func (t ReaderBookmarkTable) Columns() []string {
	return []string{t.ID, t.UserID, t.BookID, t.ChapterID, t.Percent, t.Note, t.CreatedAt}
}

// ReaderHistoryTable represents the 'reader.history' table: append-only log
// of every Progress write.
type ReaderHistoryTable struct {
	Table     string
	ID        string
	UserID    string
	BookID    string
	ChapterID string
	DeviceID  string
	Percent   string
	CreatedAt string
}

// ReaderHistory is the schema definition for reader.history.
var ReaderHistory = ReaderHistoryTable{
	Table:     "reader.history",
	ID:        "id",
	UserID:    "user_id",
	BookID:    "book_id",
	ChapterID: "chapter_id",
	DeviceID:  "device_id",
	Percent:   "percent",
	CreatedAt: "created_at",
}

func (t ReaderHistoryTable) Columns() []string {
	return []string{t.ID, t.UserID, t.BookID, t.ChapterID, t.DeviceID, t.Percent, t.CreatedAt}
}
