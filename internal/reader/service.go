// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"log/slog"
	"sync"

	"github.com/qisumi/inkvault/internal/artifact"
	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/download"
)

// Field name constants used by validation errors raised in this package.
const (
	FieldUserID    = "user_id"
	FieldBookID    = "book_id"
	FieldChapterID = "chapter_id"
	FieldPercent   = "percent"
	FieldLimit     = "limit"
)

// Service is the C7 Reader Service: table-of-contents pagination, chapter
// content resolution with download-on-demand and prefetch, and
// cross-device progress/bookmark/history sync.
type Service struct {
	store     Store
	catalog   *catalog.Service
	blobs     *blobstore.Store
	engine    *download.Engine
	artifacts *artifact.Service
	logger    *slog.Logger

	prefetchMu sync.Mutex
	prefetch   map[string]bool
}

// New constructs a [Service].
func New(store Store, catalogSvc *catalog.Service, blobs *blobstore.Store, engine *download.Engine, artifacts *artifact.Service, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		catalog:   catalogSvc,
		blobs:     blobs,
		engine:    engine,
		artifacts: artifacts,
		logger:    logger,
		prefetch:  make(map[string]bool),
	}
}

func clampPercent(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
