// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
)

// Kind distinguishes the two artifact formats §4.9 produces.
type Kind string

const (
	KindEPUB Kind = "epub"
	KindTXT  Kind = "txt"
)

// BuildStatus reports the state of a book's artifact build, keyed by
// book_uuid so that repeated build requests coalesce onto one in-flight
// build per (book, kind).
type BuildStatus string

const (
	StatusReady   BuildStatus = "ready"
	StatusPending BuildStatus = "pending"
	StatusFailed  BuildStatus = "failed"
)

// Status is the snapshot [Service.Status] returns for one (book, kind) pair.
type Status struct {
	State        BuildStatus `json:"state"`
	Path         string      `json:"path,omitempty"`
	Error        string      `json:"error,omitempty"`
	ChapterCount int         `json:"chapter_count"`
}

type buildKey struct {
	bookID string
	kind   Kind
}

// Service owns the background rebuild queue (C9). It reads completed
// chapters from the Catalog Store and their bodies from the Blob Store,
// and writes the assembled artifact back through the Blob Store.
type Service struct {
	catalog *catalog.Service
	blobs   *blobstore.Store
	meta    Metadata
	logger  *slog.Logger

	mu       sync.Mutex
	inFlight map[buildKey]bool
	status   map[buildKey]Status
}

// New constructs an artifact [Service].
func New(catalogSvc *catalog.Service, blobs *blobstore.Store, meta Metadata, logger *slog.Logger) *Service {
	return &Service{
		catalog:  catalogSvc,
		blobs:    blobs,
		meta:     meta,
		logger:   logger,
		inFlight: make(map[buildKey]bool),
		status:   make(map[buildKey]Status),
	}
}

// EnsureCached implements ensureArtifactCached: if a previously built
// artifact exists for book's current completed-chapter count, its path is
// returned with StatusReady. Otherwise a background rebuild is enqueued
// (coalescing with any already in flight for this book+kind) and
// StatusPending is returned immediately.
func (s *Service) EnsureCached(ctx context.Context, book *catalog.Book, kind Kind) (Status, error) {
	path := s.blobs.ArtifactPath(string(kind), book.ID, book.Title)
	key := buildKey{bookID: book.ID, kind: kind}

	if s.blobs.ArtifactExists(path) && book.DownloadedChapters == s.cachedChapterCount(key) {
		return Status{State: StatusReady, Path: path, ChapterCount: book.DownloadedChapters}, nil
	}

	s.mu.Lock()
	if s.inFlight[key] {
		st := s.status[key]
		s.mu.Unlock()
		if st.State == "" {
			st = Status{State: StatusPending}
		}
		return st, nil
	}
	s.inFlight[key] = true
	s.status[key] = Status{State: StatusPending}
	s.mu.Unlock()

	go s.rebuild(key, book, path)

	return Status{State: StatusPending}, nil
}

// Status returns the last known build status for (bookID, kind), or the
// zero [Status] if no build has ever been requested this process.
func (s *Service) Status(bookID string, kind Kind) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[buildKey{bookID: bookID, kind: kind}]
}

// cachedChapterCount returns the completed-chapter count an on-disk
// artifact was built against, or -1 if this process has never tracked a
// successful build for key (in which case a rebuild is always triggered
// rather than trusting a file left over from a previous process lifetime).
func (s *Service) cachedChapterCount(key buildKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.status[key]
	if !ok || st.State != StatusReady {
		return -1
	}
	return st.ChapterCount
}

// rebuild performs the actual assembly off the request path and records
// the terminal status under key, clearing the in-flight mark in the same
// critical section so no caller observes a terminal status while the key
// still counts as in flight.
func (s *Service) rebuild(key buildKey, book *catalog.Book, path string) {
	ctx := context.Background()

	data, chapterCount, err := s.assemble(ctx, book, key.kind)
	if err != nil {
		s.logger.Error("artifact_build_failed",
			slog.String("book_id", book.ID), slog.String("kind", string(key.kind)), slog.String("error", err.Error()))
		s.mu.Lock()
		s.status[key] = Status{State: StatusFailed, Error: err.Error()}
		s.inFlight[key] = false
		s.mu.Unlock()
		return
	}

	if err := s.blobs.WriteArtifact(path, data); err != nil {
		s.logger.Error("artifact_write_failed",
			slog.String("book_id", book.ID), slog.String("kind", string(key.kind)), slog.String("error", err.Error()))
		s.mu.Lock()
		s.status[key] = Status{State: StatusFailed, Error: err.Error()}
		s.inFlight[key] = false
		s.mu.Unlock()
		return
	}

	s.logger.Info("artifact_built", slog.String("book_id", book.ID), slog.String("kind", string(key.kind)))
	s.mu.Lock()
	s.status[key] = Status{State: StatusReady, Path: path, ChapterCount: chapterCount}
	s.inFlight[key] = false
	s.mu.Unlock()
}

// assemble loads every completed chapter of book and its body bytes, then
// builds the requested artifact kind. It returns the completed-chapter
// count the artifact was built against, used to detect staleness later.
func (s *Service) assemble(ctx context.Context, book *catalog.Book, kind Kind) ([]byte, int, error) {
	chapters, err := s.catalog.ChaptersForRange(ctx, book.ID, catalog.ChapterRange{}, []catalog.ChapterDownloadStatus{catalog.ChapterCompleted})
	if err != nil {
		return nil, 0, fmt.Errorf("artifact: list completed chapters: %w", err)
	}
	if len(chapters) == 0 {
		return nil, 0, errors.New("artifact: no completed chapters to assemble")
	}

	bodies := make([]ChapterBody, 0, len(chapters))
	for _, ch := range chapters {
		if ch.ContentRef == nil {
			return nil, 0, fmt.Errorf("artifact: chapter %s missing content_ref", ch.ID)
		}
		text, err := s.blobs.ReadChapter(*ch.ContentRef)
		if err != nil {
			return nil, 0, fmt.Errorf("artifact: read chapter %s: %w", ch.ID, err)
		}
		bodies = append(bodies, ChapterBody{Chapter: ch, Text: text})
	}

	var data []byte
	switch kind {
	case KindTXT:
		data = BuildTXT(bodies)
	case KindEPUB:
		var cover []byte
		if book.CoverRef != nil {
			if c, err := s.blobs.ReadCover(book.ID); err == nil {
				cover = c
			}
		}
		built, err := NewEPUBBuilder(book, bodies, s.meta, cover).Build()
		if err != nil {
			return nil, 0, err
		}
		data = built
	default:
		return nil, 0, fmt.Errorf("artifact: unknown kind %q", kind)
	}

	return data, len(bodies), nil
}
