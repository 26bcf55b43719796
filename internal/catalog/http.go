// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package catalog also provides the HTTP interface for browsing and managing
downloaded books: listing, detail retrieval, lightweight polling status, and
deletion. Discovery (search) and task orchestration live in the discovery
and download packages respectively; this handler serves only what the Catalog
Store can answer on its own.
*/
package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
	"github.com/qisumi/inkvault/pkg/pagination"
)

const (
	FieldItems        = "items"
	FieldTotal        = "total"
	FieldMessage      = "message"
	FieldDeletedFiles = "delete_files"
)

// # Handler Implementation

// Handler implements the HTTP layer for book browsing and management.
type Handler struct {
	service *Service
}

// NewHandler constructs a new catalog [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the catalog domain's
// book-browsing endpoints. Mounted at /api/books by the caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listBooks)
	router.Get("/{book}", handler.getBook)
	router.Get("/{book}/status", handler.getBookStatus)
	router.Delete("/{book}", handler.deleteBook)

	return router
}

// # Book Retrieval

/*
GET /api/books.

Description: Returns a paginated, filterable roster of downloaded books.

Request:
  - platform: string (provider filter)
  - status: string (download status filter)
  - search: string (title/author substring)
  - page, limit: int

Response:
  - 200: []Book: Paginated list
*/
func (handler *Handler) listBooks(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	params := pagination.FromRequest(request)

	filter := BookFilter{
		Provider: query.Get("platform"),
		Status:   BookDownloadStatus(query.Get("status")),
		Search:   query.Get("search"),
	}

	books, total, err := handler.service.ListBooks(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, books, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/books/{bookID}.

Description: Returns full book detail including download statistics.

Response:
  - 200: Book
  - 404: ErrNotFound
*/
func (handler *Handler) getBook(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.ID(request, "book")

	book, err := handler.service.GetBook(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
GET /api/books/{bookID}/status.

Description: Returns a lightweight view of a book's download state, meant
to be polled frequently by reader clients while a task is running.

Response:
  - 200: Book
  - 404: ErrNotFound
*/
func (handler *Handler) getBookStatus(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.ID(request, "book")

	book, err := handler.service.GetBook(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, book)
}

/*
DELETE /api/books/{bookID}?delete_files=bool.

Description: Removes a book and, by cascade, its chapters and tasks.
delete_files additionally instructs the caller's wiring layer to purge the
book's blob-store subtree; generated epub/txt artifact files are not
removed. The catalog package itself only ever deletes relational rows.

Response:
  - 204: No Content
  - 404: ErrNotFound
*/
func (handler *Handler) deleteBook(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.ID(request, "book")
	deleteFiles := deleteFilesRequested(request)

	if err := handler.service.DeleteBook(request.Context(), bookID, deleteFiles); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// deleteFilesRequested parses the delete_files query flag, defaulting false.
func deleteFilesRequested(request *http.Request) bool {
	raw := request.URL.Query().Get(FieldDeletedFiles)
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}
