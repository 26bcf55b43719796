// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CatalogChapterTable represents the 'catalog.chapter' table.
type CatalogChapterTable struct {
	Table          string
	ID             string
	BookID         string
	ItemID         string
	ChapterIndex   string
	Title          string
	VolumeName     string
	WordCount      string
	DownloadStatus string
	ContentRef     string
	CreatedAt      string
	UpdatedAt      string
}

// CatalogChapter is the schema definition for catalog.chapter.
var CatalogChapter = CatalogChapterTable{
	Table:          "catalog.chapter",
	ID:             "id",
	BookID:         "book_id",
	ItemID:         "item_id",
	ChapterIndex:   "chapter_index",
	Title:          "title",
	VolumeName:     "volume_name",
	WordCount:      "word_count",
	DownloadStatus: "download_status",
	ContentRef:     "content_ref",
	CreatedAt:      "created_at",
	UpdatedAt:      "updated_at",
}

func (t CatalogChapterTable) Columns() []string {
	return []string{
		t.ID, t.BookID, t.ItemID, t.ChapterIndex, t.Title, t.VolumeName,
		t.WordCount, t.DownloadStatus, t.ContentRef, t.CreatedAt, t.UpdatedAt,
	}
}
