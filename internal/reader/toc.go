// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import "context"

const (
	tocDefaultLimit = 50
	tocMaxLimit     = 500
)

// GetTOC returns a page of a book's table of contents, carrying only the
// light fields a chapter list view needs. If anchorChapterID is non-empty
// and resolves to a real chapter, the page containing that chapter is
// returned instead of the requested page, per §4.7's anchor repositioning.
func (s *Service) GetTOC(ctx context.Context, bookID string, page, limit int, anchorChapterID string) (*TOCPage, error) {
	if _, err := s.catalog.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = tocDefaultLimit
	}
	if limit > tocMaxLimit {
		limit = tocMaxLimit
	}

	if anchorChapterID != "" {
		if anchor, err := s.catalog.GetChapter(ctx, anchorChapterID); err == nil && anchor != nil && anchor.BookID == bookID {
			page = max1((anchor.ChapterIndex)/limit + 1)
		}
	}

	offset := (page - 1) * limit
	chapters, total, err := s.catalog.ListChapters(ctx, bookID, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]TOCEntry, 0, len(chapters))
	for _, ch := range chapters {
		items = append(items, TOCEntry{
			ID:             ch.ID,
			Index:          ch.ChapterIndex,
			Title:          ch.Title,
			WordCount:      ch.WordCount,
			UpdatedAt:      ch.UpdatedAt,
			DownloadStatus: string(ch.DownloadStatus),
		})
	}

	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}

	return &TOCPage{
		Chapters: items,
		Total:    total,
		Page:     page,
		Limit:    limit,
		Pages:    pages,
		HasMore:  offset+len(items) < total,
	}, nil
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
