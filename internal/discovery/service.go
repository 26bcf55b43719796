// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package discovery adapts the Source Client (C3) into the Catalog Store
(C1): searching a provider's catalog, materializing a found book and its
chapter list, refreshing editorial metadata, and reporting chapters an
upstream provider has published since the last sync. It owns no storage of
its own; every write lands through [catalog.Service].
*/
package discovery

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/reader"
	"github.com/qisumi/inkvault/internal/source"
)

// Service implements book discovery: search, add, refresh, and new-chapter
// detection against the upstream provider named by a Book's Provider field.
type Service struct {
	registry *source.Registry
	catalog  *catalog.Service
	reader   *reader.Service
	blobs    *blobstore.Store
	http     *http.Client
	logger   *slog.Logger
}

// New constructs a discovery [Service].
func New(registry *source.Registry, catalogSvc *catalog.Service, readerSvc *reader.Service, blobs *blobstore.Store, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		catalog:  catalogSvc,
		reader:   readerSvc,
		blobs:    blobs,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

func (s *Service) client(provider string) (source.SourceClient, error) {
	client, err := s.registry.Get(provider)
	if err != nil {
		return nil, apperr.ValidationError("unknown platform", apperr.FieldError{Field: "platform", Message: err.Error()})
	}
	return client, nil
}

// Search delegates to the named provider's [source.SourceClient.Search].
// audio_mode is accepted by neither the Source Client nor any downstream
// pipeline stage; the HTTP layer always reports it back as "none".
func (s *Service) Search(ctx context.Context, provider, keyword string, page int) (*source.SearchResult, error) {
	client, err := s.client(provider)
	if err != nil {
		return nil, err
	}
	return client.Search(ctx, keyword, page)
}

// AddBook fetches a provider's book detail and chapter list and
// materializes them as a new Book and its Chapters. It is a no-op returning
// the existing row (not an error) when the (provider, providerBookID) pair
// has already been added, matching the idempotent-on-retry expectation of
// a reader re-submitting an add request.
func (s *Service) AddBook(ctx context.Context, provider, providerBookID string) (*catalog.Book, bool, error) {
	if existing, err := s.catalog.GetBookByProvider(ctx, provider, providerBookID); err == nil && existing != nil {
		return existing, true, nil
	}

	client, err := s.client(provider)
	if err != nil {
		return nil, false, err
	}

	detail, err := client.GetBookDetail(ctx, providerBookID)
	if err != nil {
		return nil, false, apperr.BadGateway(err)
	}

	book := &catalog.Book{
		Provider:       provider,
		ProviderBookID: providerBookID,
		Title:          detail.Title,
		Author:         detail.Author,
		DownloadStatus: catalog.BookPending,
	}

	if detail.CoverURL != "" {
		if ref := s.fetchCover(ctx, book, detail.CoverURL); ref != "" {
			book.CoverRef = &ref
		}
	}

	if err := s.catalog.CreateBook(ctx, book); err != nil {
		return nil, false, err
	}

	chapterList, err := client.GetChapterList(ctx, providerBookID)
	if err != nil {
		s.logger.Warn("add_book_chapter_list_failed", slog.String("book_id", book.ID), slog.Any("error", err))
		return book, false, nil
	}

	stubs := make([]*catalog.Chapter, 0, len(chapterList.Chapters))
	for _, ch := range chapterList.Chapters {
		stubs = append(stubs, &catalog.Chapter{
			ItemID:         ch.ItemID,
			ChapterIndex:   ch.ChapterIndex,
			Title:          ch.Title,
			WordCount:      ch.WordCount,
			DownloadStatus: catalog.ChapterPending,
		})
	}
	if _, err := s.catalog.SyncChapterList(ctx, book.ID, stubs); err != nil {
		return book, false, err
	}

	book.TotalChapters = chapterList.TotalChapters
	if err := s.catalog.RefreshMetadata(ctx, book); err != nil {
		return book, false, err
	}

	s.logger.Info("book_added", slog.String("book_id", book.ID), slog.Int("total_chapters", book.TotalChapters))
	return book, false, nil
}

// fetchCover downloads a cover image and saves it to the Blob Store,
// returning its content ref or "" on any failure. A cover fetch failure
// never blocks adding a book.
func (s *Service) fetchCover(ctx context.Context, book *catalog.Book, coverURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return ""
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil || len(data) == 0 {
		return ""
	}

	ref, err := s.blobs.WriteCover(book.ID, data)
	if err != nil {
		s.logger.Warn("cover_write_failed", slog.String("book_id", book.ID), slog.Any("error", err))
		return ""
	}
	return ref
}

// RefreshMetadata re-fetches a Book's detail from its provider and updates
// the editorial fields, leaving download state untouched.
func (s *Service) RefreshMetadata(ctx context.Context, bookID string) (*catalog.Book, error) {
	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperr.NotFound("Book")
	}

	client, err := s.client(book.Provider)
	if err != nil {
		return nil, err
	}
	detail, err := client.GetBookDetail(ctx, book.ProviderBookID)
	if err != nil {
		return nil, apperr.BadGateway(err)
	}

	book.Title = detail.Title
	book.Author = detail.Author
	if detail.TotalWordCount > 0 {
		// word count is informational only; no column carries it today, so
		// it is folded into the logged refresh summary instead of dropped.
		s.logger.Debug("refresh_word_count", slog.String("book_id", book.ID), slog.Int("word_count", detail.TotalWordCount))
	}

	if err := s.catalog.RefreshMetadata(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// CheckNewChapters fetches a book's current upstream chapter list and
// reports entries past the highest chapter index already stored, without
// mutating any state.
func (s *Service) CheckNewChapters(ctx context.Context, bookID string) (*catalog.Book, []reader.NewChapterSummary, error) {
	book, err := s.catalog.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}
	if book == nil {
		return nil, nil, apperr.NotFound("Book")
	}

	client, err := s.client(book.Provider)
	if err != nil {
		return nil, nil, err
	}
	chapterList, err := client.GetChapterList(ctx, book.ProviderBookID)
	if err != nil {
		return nil, nil, apperr.BadGateway(err)
	}

	upstream := make([]reader.NewChapterSummary, 0, len(chapterList.Chapters))
	for _, ch := range chapterList.Chapters {
		upstream = append(upstream, reader.NewChapterSummary{
			ItemID:       ch.ItemID,
			ChapterIndex: ch.ChapterIndex,
			Title:        ch.Title,
		})
	}

	fresh, err := s.reader.CheckNewChapters(ctx, bookID, upstream)
	if err != nil {
		return nil, nil, err
	}
	return book, fresh, nil
}

// ChapterSummary forwards to [catalog.Service.ChapterSummary].
func (s *Service) ChapterSummary(ctx context.Context, bookID string, segmentSize int) (*catalog.ChapterSummary, error) {
	return s.catalog.ChapterSummary(ctx, bookID, segmentSize)
}
