// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package source

import "context"

// SourceClient is the capability set every provider implementation exposes.
// book_hint in GetChapterContent lets providers that scope their content
// endpoint by book (biquge) resolve the right book without a separate
// lookup. qimao also sends it as the book id when it is set; fanqie
// ignores it.
type SourceClient interface {
	// Provider returns this client's provider identifier.
	Provider() string

	// Search looks up books matching keyword on the given page. The qimao
	// client treats pages as 1-based (page 0 also maps to the first page);
	// the other clients pass page through unchanged.
	Search(ctx context.Context, keyword string, page int) (*SearchResult, error)

	// GetBookDetail fetches metadata for a single upstream book.
	GetBookDetail(ctx context.Context, providerBookID string) (*BookDetail, error)

	// GetChapterList fetches the full chapter roster for a book. The
	// returned chapter_index sequence is 0-based and dense.
	GetChapterList(ctx context.Context, providerBookID string) (*ChapterListResult, error)

	// GetChapterContent fetches the text of a single chapter. bookHint may
	// be empty for providers that don't need it.
	GetChapterContent(ctx context.Context, itemID, bookHint string) (*ChapterContent, error)
}
