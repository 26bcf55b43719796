// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package discovery

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
)

const (
	FieldKeyword  = "q"
	FieldPlatform = "platform"
)

// Handler implements the HTTP interface for book discovery. Mounted at
// /api/books by the caller, alongside the catalog handler.
type Handler struct {
	service *Service
}

// NewHandler constructs a discovery [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the discovery endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/search", handler.search)
	router.Post("/add/{platform}/{provider_book_id}", handler.addBook)
	router.Post("/{book}/refresh", handler.refresh)
	router.Get("/{book}/new-chapters", handler.newChapters)
	router.Get("/{book}/chapters/summary", handler.chapterSummary)

	return router
}

type searchResponse struct {
	Books     interface{} `json:"books"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	AudioMode string      `json:"audio_mode"`
}

/*
GET /api/books/search?q&platform&page.

Description: Searches a provider's catalog by keyword. This service has no
audio transcoding pipeline (a Non-goal); audio_mode is echoed back as
"none" for client compatibility.

Response:
  - 200: searchResponse
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	keyword := query.Get(FieldKeyword)
	platform := query.Get(FieldPlatform)
	page, _ := strconv.Atoi(query.Get("page"))

	if platform == "" {
		respond.Error(writer, request, apperr.ValidationError("platform is required"))
		return
	}

	result, err := handler.service.Search(request.Context(), platform, keyword, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, searchResponse{
		Books:     result.Books,
		Total:     result.Total,
		Page:      result.Page,
		AudioMode: "none",
	})
}

type addBookResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Book    interface{} `json:"book"`
}

/*
POST /api/books/add/{platform}/{provider_book_id}.

Description: Fetches book detail and chapter list from the named provider
and materializes them as a new Book. Re-submitting an already-added
(platform, provider_book_id) pair returns the existing Book rather than a
conflict error.

Response:
  - 200: addBookResponse
  - 502: ErrBadGateway (provider unreachable or malformed)
*/
func (handler *Handler) addBook(writer http.ResponseWriter, request *http.Request) {
	platform := requestutil.Param(request, "platform")
	providerBookID := requestutil.Param(request, "provider_book_id")

	book, alreadyExisted, err := handler.service.AddBook(request.Context(), platform, providerBookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	message := "book added"
	if alreadyExisted {
		message = "book already added"
	}
	respond.OK(writer, addBookResponse{Success: true, Message: message, Book: book})
}

/*
POST /api/books/{book}/refresh.

Description: Re-fetches editorial metadata (title, author, cover) from the
book's provider.

Response:
  - 200: Book
  - 404: ErrNotFound
  - 502: ErrBadGateway
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	book, err := handler.service.RefreshMetadata(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, book)
}

type newChaptersResponse struct {
	BookID           string      `json:"book_id"`
	BookTitle        string      `json:"book_title"`
	NewChaptersCount int         `json:"new_chapters_count"`
	NewChapters      interface{} `json:"new_chapters"`
}

/*
GET /api/books/{book}/new-chapters.

Description: Compares the provider's current chapter list against what is
stored locally and reports chapters past the highest stored index. Purely
a report: nothing is persisted.

Response:
  - 200: newChaptersResponse
  - 404: ErrNotFound
  - 502: ErrBadGateway
*/
func (handler *Handler) newChapters(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	book, fresh, err := handler.service.CheckNewChapters(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, newChaptersResponse{
		BookID:           bookID,
		BookTitle:        book.Title,
		NewChaptersCount: len(fresh),
		NewChapters:      fresh,
	})
}

/*
GET /api/books/{book}/chapters/summary?segment_size.

Description: Buckets a book's chapters into fixed-size segments and
reports each segment's completed/pending/failed counts, for a heatmap-style
progress view. segment_size defaults to 50, clamped to [10, 200].

Response:
  - 200: ChapterSummary
  - 404: ErrNotFound
*/
func (handler *Handler) chapterSummary(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	segmentSize := 50
	if raw := request.URL.Query().Get("segment_size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			segmentSize = parsed
		}
	}
	if segmentSize < 10 {
		segmentSize = 10
	}
	if segmentSize > 200 {
		segmentSize = 200
	}

	summary, err := handler.service.ChapterSummary(request.Context(), bookID, segmentSize)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, summary)
}
