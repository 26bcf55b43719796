// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// ReaderUserTable represents the 'reader.user' table.
type ReaderUserTable struct {
	Table     string
	ID        string
	Username  string
	CreatedAt string
}

// ReaderUser is the schema definition for reader.user.
var ReaderUser = ReaderUserTable{
	Table:     "reader.user",
	ID:        "id",
	Username:  "username",
	CreatedAt: "created_at",
}

func (t ReaderUserTable) Columns() []string {
	return []string{t.ID, t.Username, t.CreatedAt}
}

// ReaderUserBookTable represents the 'reader.user_book' table.
type ReaderUserBookTable struct {
	Table     string
	ID        string
	UserID    string
	BookID    string
	CreatedAt string
}

// ReaderUserBook is the schema definition for reader.user_book.
var ReaderUserBook = ReaderUserBookTable{
	Table:     "reader.user_book",
	ID:        "id",
	UserID:    "user_id",
	BookID:    "book_id",
	CreatedAt: "created_at",
}

func (t ReaderUserBookTable) Columns() []string {
	return []string{t.ID, t.UserID, t.BookID, t.CreatedAt}
}
