// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CatalogBookTable represents the 'catalog.book' table.
type CatalogBookTable struct {
	Table              string
	ID                 string
	Provider           string
	ProviderBookID     string
	Title              string
	Author             string
	CoverRef           string
	TotalChapters      string
	DownloadedChapters string
	DownloadStatus     string
	CreatedAt          string
	UpdatedAt          string
}

// CatalogBook is the schema definition for catalog.book.
var CatalogBook = CatalogBookTable{
	Table:              "catalog.book",
	ID:                 "id",
	Provider:           "provider",
	ProviderBookID:     "provider_book_id",
	Title:              "title",
	Author:             "author",
	CoverRef:           "cover_ref",
	TotalChapters:      "total_chapters",
	DownloadedChapters: "downloaded_chapters",
	DownloadStatus:     "download_status",
	CreatedAt:          "created_at",
	UpdatedAt:          "updated_at",
}

func (t CatalogBookTable) Columns() []string {
	return []string{
		t.ID, t.Provider, t.ProviderBookID, t.Title, t.Author, t.CoverRef,
		t.TotalChapters, t.DownloadedChapters, t.DownloadStatus, t.CreatedAt, t.UpdatedAt,
	}
}
