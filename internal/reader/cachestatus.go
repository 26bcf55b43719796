// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"context"
	"time"

	"github.com/qisumi/inkvault/internal/artifact"
	"github.com/qisumi/inkvault/internal/catalog"
)

// CacheStatus reports which chapters of a book currently have content
// cached in the Blob Store.
func (s *Service) CacheStatus(ctx context.Context, bookID string) (*CacheStatus, error) {
	chapters, err := s.catalog.ChaptersForRange(ctx, bookID, catalog.ChapterRange{}, []catalog.ChapterDownloadStatus{catalog.ChapterCompleted})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(chapters))
	for _, ch := range chapters {
		ids = append(ids, ch.ID)
	}

	return &CacheStatus{CompletedChapterIDs: ids, CheckedAt: time.Now()}, nil
}

// EnsureArtifactCached returns the current build status of a book's EPUB
// or TXT artifact, enqueuing a background rebuild when the cached copy is
// stale or absent. Thin forwarding wrapper over the Artifact Builder so
// reader HTTP consumers have a single facade for both content and export
// concerns.
func (s *Service) EnsureArtifactCached(ctx context.Context, book *catalog.Book, kind artifact.Kind) (artifact.Status, error) {
	return s.artifacts.EnsureCached(ctx, book, kind)
}
