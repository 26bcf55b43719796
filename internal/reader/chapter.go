// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/download"
	"github.com/qisumi/inkvault/internal/platform/apperr"
)

const defaultChapterRetries = 3

// GetChapterContent resolves a chapter's body, downloading it on demand if
// it is not yet in the Blob Store, and optionally biasing the lookup
// toward the previous or next chapter before reading. Per §4.7 it never
// returns a not-ready error: a missing body comes back as a [ChapterContent]
// with Status [ContentFetching] and an explanatory Message.
func (s *Service) GetChapterContent(ctx context.Context, bookID, chapterID string, format Format, fetchRange FetchRange, prefetch, retries int) (*ChapterContent, error) {
	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperr.NotFound("Book")
	}

	target, err := s.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if target == nil || target.BookID != bookID {
		return nil, apperr.NotFound("Chapter")
	}

	target, err = s.resolveFetchRange(ctx, bookID, target, fetchRange)
	if err != nil {
		return nil, err
	}

	prevID, nextID, err := s.adjacentChapters(ctx, bookID, target.ChapterIndex)
	if err != nil {
		return nil, err
	}

	if retries <= 0 {
		retries = defaultChapterRetries
	}
	text, status, message := s.fetchChapterText(ctx, book, target, retries, prefetch)

	content := &ChapterContent{
		ChapterID: target.ID,
		Title:     target.Title,
		Index:     target.ChapterIndex,
		PrevID:    prevID,
		NextID:    nextID,
		WordCount: target.WordCount,
		UpdatedAt: target.UpdatedAt,
		Status:    status,
		Message:   message,
	}
	if content.WordCount == 0 {
		content.WordCount = len([]rune(text))
	}

	if status == ContentReady && text != "" {
		if format == FormatText {
			content.ContentText = text
		} else {
			content.ContentHTML = paragraphsToHTML(text)
		}
	}
	return content, nil
}

func (s *Service) resolveFetchRange(ctx context.Context, bookID string, chapter *catalog.Chapter, fetchRange FetchRange) (*catalog.Chapter, error) {
	switch fetchRange {
	case FetchRangePrev:
		prevID, _, err := s.adjacentChapters(ctx, bookID, chapter.ChapterIndex)
		if err != nil {
			return nil, err
		}
		if prevID == nil {
			return nil, apperr.NotFound("previous chapter")
		}
		return s.catalog.GetChapter(ctx, *prevID)
	case FetchRangeNext:
		_, nextID, err := s.adjacentChapters(ctx, bookID, chapter.ChapterIndex)
		if err != nil {
			return nil, err
		}
		if nextID == nil {
			return nil, apperr.NotFound("next chapter")
		}
		return s.catalog.GetChapter(ctx, *nextID)
	default:
		return chapter, nil
	}
}

// adjacentChapters returns the IDs of the chapters immediately before and
// after the given index, or nil for either side that does not exist.
func (s *Service) adjacentChapters(ctx context.Context, bookID string, index int) (prevID, nextID *string, err error) {
	if prev, err := s.catalog.GetChapterByIndex(ctx, bookID, index-1); err == nil && prev != nil {
		id := prev.ID
		prevID = &id
	}
	if next, err := s.catalog.GetChapterByIndex(ctx, bookID, index+1); err == nil && next != nil {
		id := next.ID
		nextID = &id
	}
	return prevID, nextID, nil
}

func (s *Service) readChapterText(chapter *catalog.Chapter) string {
	if chapter.ContentRef == nil {
		return ""
	}
	text, err := s.blobs.ReadChapter(*chapter.ContentRef)
	if err != nil {
		if !errors.Is(err, blobstore.ErrMissing) {
			s.logger.Warn("chapter_read_failed", slog.String("chapter_id", chapter.ID), slog.Any("error", err))
		}
		return ""
	}
	return text
}

func (s *Service) fetchChapterText(ctx context.Context, book *catalog.Book, chapter *catalog.Chapter, retries, prefetch int) (string, ContentStatus, string) {
	if text := s.readChapterText(chapter); text != "" {
		return text, ContentReady, ""
	}

	ok, err := s.engine.DownloadChapterWithRetry(ctx, book, chapter, retries)
	if err != nil {
		if errors.Is(err, download.ErrQuotaReached) {
			return "", ContentFetching, "chapter fetch blocked: daily quota reached"
		}
		return "", ContentFetching, err.Error()
	}
	if !ok {
		return "", ContentFetching, "chapter fetch failed, possibly a network issue or quota limit"
	}

	refreshed, err := s.catalog.GetChapter(ctx, chapter.ID)
	if err != nil || refreshed == nil {
		return "", ContentFetching, ""
	}
	text := s.readChapterText(refreshed)
	if text == "" {
		return "", ContentFetching, ""
	}

	if prefetch > 0 {
		go s.schedulePrefetch(book, chapter.ChapterIndex, prefetch)
	}
	return text, ContentReady, ""
}

// paragraphsToHTML renders plain chapter text as HTML paragraphs per §4.7:
// each non-empty line becomes its own escaped <p>, blank lines become a
// non-breaking-space placeholder paragraph.
func paragraphsToHTML(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			paragraphs = append(paragraphs, "<p>&nbsp;</p>")
			continue
		}
		paragraphs = append(paragraphs, fmt.Sprintf("<p>%s</p>", html.EscapeString(trimmed)))
	}
	return strings.Join(paragraphs, "\n")
}

// # Prefetch

// schedulePrefetch downloads up to count subsequent chapters in the
// background, stopping at the first failure or quota exhaustion. It runs
// with its own context since the originating request may have already
// returned by the time it executes.
func (s *Service) schedulePrefetch(book *catalog.Book, startIndex, count int) {
	ctx := context.Background()
	chapters, err := s.catalog.ChaptersForRange(ctx, book.ID, catalog.ChapterRange{}, nil)
	if err != nil {
		s.logger.Warn("prefetch_list_failed", slog.String("book_id", book.ID), slog.Any("error", err))
		return
	}

	taken := 0
	for _, ch := range chapters {
		if taken >= count {
			break
		}
		if ch.ChapterIndex <= startIndex {
			continue
		}
		if ch.DownloadStatus == catalog.ChapterCompleted || ch.DownloadStatus == catalog.ChapterDownloading {
			continue
		}
		taken++

		key := fmt.Sprintf("%s:%s", book.ID, ch.ID)
		if !s.claimPrefetch(key) {
			continue
		}

		ok, err := s.engine.DownloadChapterWithRetry(ctx, book, ch, 1)
		s.releasePrefetch(key)
		if err != nil || !ok {
			if err != nil {
				s.logger.Warn("prefetch_stopped", slog.String("book_id", book.ID), slog.Any("error", err))
			}
			break
		}
	}
}

func (s *Service) claimPrefetch(key string) bool {
	s.prefetchMu.Lock()
	defer s.prefetchMu.Unlock()
	if s.prefetch[key] {
		return false
	}
	s.prefetch[key] = true
	return true
}

func (s *Service) releasePrefetch(key string) {
	s.prefetchMu.Lock()
	defer s.prefetchMu.Unlock()
	delete(s.prefetch, key)
}

// # New chapter discovery

// CheckNewChapters reports upstream chapters with an index past what is
// currently stored, without mutating any state.
func (s *Service) CheckNewChapters(ctx context.Context, bookID string, upstream []NewChapterSummary) ([]NewChapterSummary, error) {
	chapters, err := s.catalog.ChaptersForRange(ctx, bookID, catalog.ChapterRange{}, nil)
	if err != nil {
		return nil, err
	}
	maxIndex := -1
	for _, ch := range chapters {
		if ch.ChapterIndex > maxIndex {
			maxIndex = ch.ChapterIndex
		}
	}

	var fresh []NewChapterSummary
	for _, item := range upstream {
		if item.ChapterIndex > maxIndex {
			fresh = append(fresh, item)
		}
	}
	return fresh, nil
}

// AddNewChapters materializes the given upstream chapters as pending rows
// and bumps the book's total_chapters counter to match.
func (s *Service) AddNewChapters(ctx context.Context, bookID string, fresh []NewChapterSummary) (int, error) {
	if len(fresh) == 0 {
		return 0, nil
	}

	stubs := make([]*catalog.Chapter, 0, len(fresh))
	for _, item := range fresh {
		stubs = append(stubs, &catalog.Chapter{
			ItemID:         item.ItemID,
			ChapterIndex:   item.ChapterIndex,
			Title:          item.Title,
			DownloadStatus: catalog.ChapterPending,
		})
	}

	added, err := s.catalog.SyncChapterList(ctx, bookID, stubs)
	if err != nil {
		return 0, err
	}
	if added == 0 {
		return 0, nil
	}

	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return added, err
	}
	book.TotalChapters += added
	if err := s.catalog.RefreshMetadata(ctx, book); err != nil {
		return added, err
	}
	return added, nil
}
