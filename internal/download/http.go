// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/platform/apperr"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
	"github.com/qisumi/inkvault/pkg/pagination"
)

// detachedContext returns a context for background task execution that
// outlives the originating request, carrying none of its cancellation.
// Task progress after this point is observed through the Progress Bus /
// WebSocket bridge, not through the HTTP response.
func detachedContext(_ *http.Request) context.Context {
	return context.Background()
}

// Handler implements the HTTP interface for the Task API Facade (C8)'s
// synchronous surface: creating/cancelling/retrying download tasks and
// listing them. The WebSocket bridge lives in ws.go. Mounted at /api/tasks
// by the caller, alongside the quota handler at /api/tasks/quota.
type Handler struct {
	engine  *Engine
	catalog *catalog.Service
}

// NewHandler constructs a download [Handler].
func NewHandler(engine *Engine, catalogSvc *catalog.Service) *Handler {
	return &Handler{engine: engine, catalog: catalogSvc}
}

// Routes returns a [chi.Router] configured with the task-facade endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listTasks)
	router.Get("/{task}", handler.getTask)
	router.Post("/{task}/cancel", handler.cancelTask)
	router.Post("/{book}/download", handler.startDownload)
	router.Post("/{book}/update", handler.startUpdate)
	router.Post("/{book}/retry", handler.retryFailed)

	return router
}

func chapterRangeFromQuery(query map[string][]string) catalog.ChapterRange {
	get := func(key string) *int {
		values, ok := query[key]
		if !ok || len(values) == 0 || values[0] == "" {
			return nil
		}
		v, err := strconv.Atoi(values[0])
		if err != nil {
			return nil
		}
		return &v
	}
	return catalog.ChapterRange{StartChapter: get("start_chapter"), EndChapter: get("end_chapter")}
}

/*
POST /api/tasks/{book}/download?start_chapter&end_chapter.

Description: Creates and starts a full-download task for book, covering the
given chapter range (unbounded on either side when omitted). Runs the batch
in the background; the response carries the newly created, still-pending
[catalog.Task].

Response:
  - 202: Task
  - 404: ErrNotFound
  - 409: ErrConflict (book already has an active task)
*/
func (handler *Handler) startDownload(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")
	r := chapterRangeFromQuery(request.URL.Query())

	task, err := handler.engine.CreateTask(request.Context(), bookID, catalog.TaskFullDownload, r, true)
	if err != nil {
		respond.Error(writer, request, mapEngineError(err))
		return
	}

	go handler.engine.Execute(detachedContext(request), task.ID, true, r)
	respond.JSON(writer, http.StatusAccepted, task)
}

/*
POST /api/tasks/{book}/update.

Description: Creates and starts an update task for book, processing only
chapters still pending (freshly discovered via new-chapters detection).

Response:
  - 202: Task
  - 404: ErrNotFound
  - 409: ErrConflict
*/
func (handler *Handler) startUpdate(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	task, err := handler.engine.CreateTask(request.Context(), bookID, catalog.TaskUpdate, catalog.ChapterRange{}, false)
	if err != nil {
		respond.Error(writer, request, mapEngineError(err))
		return
	}

	go handler.engine.Execute(detachedContext(request), task.ID, false, catalog.ChapterRange{})
	respond.JSON(writer, http.StatusAccepted, task)
}

/*
POST /api/tasks/{book}/retry.

Description: Resets every failed chapter of book back to pending and starts
a full-download task over them. No-op (200, no task) if nothing had failed.

Response:
  - 202: Task
  - 200: {"message": "nothing to retry"} when no chapter had failed
  - 404: ErrNotFound
*/
func (handler *Handler) retryFailed(writer http.ResponseWriter, request *http.Request) {
	bookID := requestutil.Param(request, "book")

	task, err := handler.engine.RetryFailed(request.Context(), bookID)
	if err != nil {
		respond.Error(writer, request, mapEngineError(err))
		return
	}
	if task == nil {
		respond.OK(writer, map[string]string{"message": "nothing to retry"})
		return
	}

	go handler.engine.Execute(detachedContext(request), task.ID, true, catalog.ChapterRange{})
	respond.JSON(writer, http.StatusAccepted, task)
}

/*
GET /api/tasks?book.

Description: Lists tasks for a single book (the facade has no process-wide
task index beyond the per-book history the Catalog Store keeps).

Response:
  - 200: []Task (paginated)
  - 400: ErrValidation when book is omitted
*/
func (handler *Handler) listTasks(writer http.ResponseWriter, request *http.Request) {
	bookID := request.URL.Query().Get("book")
	if bookID == "" {
		respond.Error(writer, request, apperr.ValidationError("book is required"))
		return
	}

	params := pagination.FromRequest(request)
	tasks, total, err := handler.catalog.ListTasksForBook(request.Context(), bookID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, tasks, pagination.NewMeta(params.Page, params.Limit, total))
}

// GET /api/tasks/{task}.
func (handler *Handler) getTask(writer http.ResponseWriter, request *http.Request) {
	taskID := requestutil.Param(request, "task")
	task, err := handler.catalog.GetTask(request.Context(), taskID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, task)
}

// POST /api/tasks/{task}/cancel.
func (handler *Handler) cancelTask(writer http.ResponseWriter, request *http.Request) {
	taskID := requestutil.Param(request, "task")
	if err := handler.engine.Cancel(request.Context(), taskID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// mapEngineError translates Engine sentinel errors into the apperr taxonomy
// the respond package knows how to render.
func mapEngineError(err error) error {
	switch err {
	case ErrTaskAlreadyRunning:
		return apperr.Conflict("book already has an active task")
	case ErrQuotaReached:
		return apperr.RateLimited(0)
	default:
		return err
	}
}
