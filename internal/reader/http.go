// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reader

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
)

// Handler implements the HTTP interface for the Reader Service: table of
// contents, chapter content, and cross-device progress/bookmark/history
// sync. Mounted at /api/books/{book} by the caller, alongside the catalog
// and artifact handlers.
type Handler struct {
	service *Service
}

// NewHandler constructs a reader [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the reader endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/toc", handler.getTOC)
	router.Get("/chapters/{chapter}/content", handler.getChapterContent)
	router.Get("/cache/status", handler.getCacheStatus)

	router.Get("/reader/progress", handler.getProgress)
	router.Post("/reader/progress", handler.upsertProgress)
	router.Delete("/reader/progress", handler.clearProgress)
	router.Get("/reader/progress/devices", handler.listDeviceProgress)

	router.Get("/reader/bookmarks", handler.listBookmarks)
	router.Post("/reader/bookmarks", handler.addBookmark)
	router.Get("/reader/bookmarks/{bookmark}", handler.getBookmark)
	router.Patch("/reader/bookmarks/{bookmark}", handler.updateBookmark)
	router.Delete("/reader/bookmarks/{bookmark}", handler.deleteBookmark)

	router.Get("/reader/history", handler.listHistory)
	router.Delete("/reader/history", handler.clearHistory)

	return router
}

// # Table of contents / chapter content

/*
GET /api/books/{book}/toc.

Request:
  - page, limit: int
  - anchor: string (chapter UUID to reposition the returned page around)

Response:
  - 200: TOCPage
*/
func (handler *Handler) getTOC(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	query := request.URL.Query()
	page := atoiDefault(query.Get("page"), 1)
	limit := atoiDefault(query.Get("limit"), tocDefaultLimit)

	toc, err := handler.service.GetTOC(request.Context(), bookID, page, limit, query.Get("anchor"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, toc)
}

/*
GET /api/books/{book}/chapters/{chapter}/content.

Request:
  - format: "text" or "html" (default html)
  - range: "prev" or "next"
  - prefetch: int, 0-5 (default 3)
  - retries: int

Response:
  - 200: ChapterContent
  - 404: ErrNotFound
*/
func (handler *Handler) getChapterContent(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	chapterID := requestutil.Param(request, "chapter")
	query := request.URL.Query()

	format := Format(query.Get("format"))
	if format != FormatText {
		format = FormatHTML
	}

	prefetch := atoiDefault(query.Get("prefetch"), 3)
	if prefetch < 0 {
		prefetch = 0
	}
	if prefetch > 5 {
		prefetch = 5
	}
	retries := atoiDefault(query.Get("retries"), defaultChapterRetries)

	content, err := handler.service.GetChapterContent(request.Context(), bookID, chapterID, format, FetchRange(query.Get("range")), prefetch, retries)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, content)
}

/*
GET /api/books/{book}/cache/status.

Response:
  - 200: CacheStatus
*/
func (handler *Handler) getCacheStatus(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	status, err := handler.service.CacheStatus(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, status)
}

// # Progress

/*
GET /api/books/{book}/reader/progress.

Request:
  - user_id: string (required)
  - device_id: string (optional)

Response:
  - 200: Progress
  - 204: no sync row found
*/
func (handler *Handler) getProgress(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	query := request.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	progress, err := handler.service.GetProgress(request.Context(), userID, bookID, query.Get("device_id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if progress == nil {
		respond.NoContent(writer)
		return
	}
	respond.OK(writer, progress)
}

// GET /api/books/{book}/reader/progress/devices.
func (handler *Handler) listDeviceProgress(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	userID := request.URL.Query().Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	rows, err := handler.service.ListDeviceProgress(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, rows)
}

type upsertProgressRequest struct {
	UserID    string  `json:"user_id"`
	ChapterID string  `json:"chapter_id"`
	DeviceID  string  `json:"device_id"`
	OffsetPx  int     `json:"offset_px"`
	Percent   float64 `json:"percent"`
}

/*
POST /api/books/{book}/reader/progress.

Request body: upsertProgressRequest

Response:
  - 200: Progress
  - 400: ErrValidation
*/
func (handler *Handler) upsertProgress(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	var body upsertProgressRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	progress, err := handler.service.UpsertProgress(request.Context(), body.UserID, bookID, body.ChapterID, body.DeviceID, body.OffsetPx, body.Percent)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, progress)
}

/*
DELETE /api/books/{book}/reader/progress.

Request:
  - user_id: string (required)
  - device_id: string (optional)

Response:
  - 204: cleared
  - 404: ErrNotFound
*/
func (handler *Handler) clearProgress(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	query := request.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	found, err := handler.service.ClearProgress(request.Context(), userID, bookID, query.Get("device_id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !found {
		respond.Error(writer, request, apperr.NotFound("Progress"))
		return
	}
	respond.NoContent(writer)
}

// # Bookmarks

// GET /api/books/{book}/reader/bookmarks.
func (handler *Handler) listBookmarks(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	userID := request.URL.Query().Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	bookmarks, err := handler.service.ListBookmarks(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, bookmarks)
}

type addBookmarkRequest struct {
	UserID    string  `json:"user_id"`
	ChapterID string  `json:"chapter_id"`
	Percent   float64 `json:"percent"`
	Note      *string `json:"note"`
}

// POST /api/books/{book}/reader/bookmarks.
func (handler *Handler) addBookmark(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	var body addBookmarkRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookmark, err := handler.service.AddBookmark(request.Context(), body.UserID, bookID, body.ChapterID, body.Percent, body.Note)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, bookmark)
}

// GET /api/books/{book}/reader/bookmarks/{bookmark}.
func (handler *Handler) getBookmark(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "bookmark")
	bookmark, err := handler.service.GetBookmark(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, bookmark)
}

type updateBookmarkRequest struct {
	Note    *string  `json:"note"`
	Percent *float64 `json:"percent"`
}

// PATCH /api/books/{book}/reader/bookmarks/{bookmark}.
func (handler *Handler) updateBookmark(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "bookmark")

	var body updateBookmarkRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	bookmark, err := handler.service.UpdateBookmark(request.Context(), id, body.Note, body.Percent)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, bookmark)
}

// DELETE /api/books/{book}/reader/bookmarks/{bookmark}.
func (handler *Handler) deleteBookmark(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	bookmarkID := requestutil.Param(request, "bookmark")
	userID := request.URL.Query().Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	found, err := handler.service.DeleteBookmark(request.Context(), userID, bookID, bookmarkID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !found {
		respond.Error(writer, request, apperr.NotFound("Bookmark"))
		return
	}
	respond.NoContent(writer)
}

// # History

// GET /api/books/{book}/reader/history.
func (handler *Handler) listHistory(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	query := request.URL.Query()
	userID := query.Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	entries, err := handler.service.ListHistory(request.Context(), userID, bookID, atoiDefault(query.Get("limit"), 50))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, entries)
}

// DELETE /api/books/{book}/reader/history.
func (handler *Handler) clearHistory(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	userID := request.URL.Query().Get("user_id")
	if userID == "" {
		respond.Error(writer, request, apperr.ValidationError("user_id is required"))
		return
	}

	count, err := handler.service.ClearHistory(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, map[string]any{"deleted": count})
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
