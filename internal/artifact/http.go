// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package artifact

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qisumi/inkvault/internal/blobstore"
	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/platform/apperr"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
)

// Handler implements the HTTP interface for on-demand artifact assembly.
// Mounted under /api/books/{book} by the caller.
type Handler struct {
	artifacts *Service
	catalog   *catalog.Service
	blobs     *blobstore.Store
}

// NewHandler constructs an artifact [Handler].
func NewHandler(artifacts *Service, catalogSvc *catalog.Service, blobs *blobstore.Store) *Handler {
	return &Handler{artifacts: artifacts, catalog: catalogSvc, blobs: blobs}
}

// Routes returns a [chi.Router] configured with the EPUB/TXT build and
// download endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/epub", handler.buildEPUB)
	router.Get("/epub/status", handler.epubStatus)
	router.Get("/epub/download", handler.downloadEPUB)

	router.Post("/txt", handler.buildTXT)
	router.Get("/txt/status", handler.txtStatus)
	router.Get("/txt/download", handler.downloadTXT)

	return router
}

/*
POST /api/books/{book}/epub.

Description: Enqueues (or reuses) a background EPUB rebuild for the book.

Response:
  - 200: {status} when an up-to-date artifact already exists.
  - 202: {status} when a background build was enqueued or is already running.
  - 404: ErrNotFound
*/
func (handler *Handler) buildEPUB(writer http.ResponseWriter, request *http.Request) {
	handler.build(writer, request, KindEPUB)
}

// POST /api/books/{book}/txt. See [Handler.buildEPUB].
func (handler *Handler) buildTXT(writer http.ResponseWriter, request *http.Request) {
	handler.build(writer, request, KindTXT)
}

func (handler *Handler) build(writer http.ResponseWriter, request *http.Request, kind Kind) {
	book, err := handler.resolveBook(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.artifacts.EnsureCached(request.Context(), book, kind)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if status.State == StatusReady {
		respond.OK(writer, statusPayload(status))
		return
	}
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: statusPayload(status)})
}

/*
GET /api/books/{book}/epub/status.

Response:
  - 200: {status, error?}
*/
func (handler *Handler) epubStatus(writer http.ResponseWriter, request *http.Request) {
	handler.status(writer, request, KindEPUB)
}

// GET /api/books/{book}/txt/status. See [Handler.epubStatus].
func (handler *Handler) txtStatus(writer http.ResponseWriter, request *http.Request) {
	handler.status(writer, request, KindTXT)
}

func (handler *Handler) status(writer http.ResponseWriter, request *http.Request, kind Kind) {
	bookID := requestutil.Param(request, "book")
	st := handler.artifacts.Status(bookID, kind)
	if st.State == "" {
		st = Status{State: StatusPending}
	}
	respond.OK(writer, statusPayload(st))
}

/*
GET /api/books/{book}/epub/download.

Description: Streams the completed EPUB file. If no up-to-date artifact
exists yet, enqueues a rebuild and responds 202 instead of a file body.

Response:
  - 200: application/epub+zip body
  - 202: {status} build in progress
  - 404: ErrNotFound
*/
func (handler *Handler) downloadEPUB(writer http.ResponseWriter, request *http.Request) {
	handler.download(writer, request, KindEPUB, "application/epub+zip")
}

// GET /api/books/{book}/txt/download. See [Handler.downloadEPUB].
func (handler *Handler) downloadTXT(writer http.ResponseWriter, request *http.Request) {
	handler.download(writer, request, KindTXT, "text/plain; charset=utf-8")
}

func (handler *Handler) download(writer http.ResponseWriter, request *http.Request, kind Kind, contentType string) {
	book, err := handler.resolveBook(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.artifacts.EnsureCached(request.Context(), book, kind)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if status.State != StatusReady {
		respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: statusPayload(status)})
		return
	}

	file, err := handler.blobs.OpenArtifact(status.Path)
	if err != nil {
		if errors.Is(err, blobstore.ErrMissing) {
			respond.Error(writer, request, apperr.NotFound("artifact"))
			return
		}
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	writer.Header().Set("Content-Type", contentType)
	writer.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifactFilename(book.Title, kind)))
	writer.WriteHeader(http.StatusOK)
	_, _ = io.Copy(writer, file)
}

func (handler *Handler) resolveBook(request *http.Request) (*catalog.Book, error) {
	bookID := requestutil.Param(request, "book")
	return handler.catalog.GetBook(request.Context(), bookID)
}

func statusPayload(st Status) map[string]any {
	payload := map[string]any{"status": string(st.State)}
	if st.Error != "" {
		payload["error"] = st.Error
	}
	return payload
}

func artifactFilename(title string, kind Kind) string {
	ext := "epub"
	if kind == KindTXT {
		ext = "txt"
	}
	return blobstore.SanitizeFilename(title) + "." + ext
}
