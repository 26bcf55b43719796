// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CatalogTaskTable represents the 'catalog.task' table.
type CatalogTaskTable struct {
	Table        string
	ID           string
	BookID       string
	Type         string
	Status       string
	Total        string
	Downloaded   string
	Failed       string
	ErrorMessage string
	CreatedAt    string
	StartedAt    string
	CompletedAt  string
}

// CatalogTask is the schema definition for catalog.task.
var CatalogTask = CatalogTaskTable{
	Table:        "catalog.task",
	ID:           "id",
	BookID:       "book_id",
	Type:         "type",
	Status:       "status",
	Total:        "total",
	Downloaded:   "downloaded",
	Failed:       "failed",
	ErrorMessage: "error_message",
	CreatedAt:    "created_at",
	StartedAt:    "started_at",
	CompletedAt:  "completed_at",
}

func (t CatalogTaskTable) Columns() []string {
	return []string{
		t.ID, t.BookID, t.Type, t.Status, t.Total, t.Downloaded, t.Failed,
		t.ErrorMessage, t.CreatedAt, t.StartedAt, t.CompletedAt,
	}
}
