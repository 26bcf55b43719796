// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
	"github.com/qisumi/inkvault/pkg/pagination"
)

// Handler implements the HTTP interface for bookshelf-owner profiles.
// Mounted at /api/users by the caller.
type Handler struct {
	service *Service
}

// NewHandler constructs a users [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the user-profile endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listUsers)
	router.Post("/", handler.createUser)
	router.Patch("/{user}", handler.updateUser)
	router.Delete("/{user}", handler.deleteUser)

	router.Get("/{user}/books", handler.listSavedBooks)
	router.Post("/{user}/books/{book}", handler.saveBook)
	router.Delete("/{user}/books/{book}", handler.removeSavedBook)

	return router
}

type createUserRequest struct {
	Username string `json:"username"`
}

// GET /api/users.
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	list, total, err := handler.service.ListUsers(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, list, pagination.NewMeta(params.Page, params.Limit, total))
}

// POST /api/users.
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var body createUserRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.CreateUser(request.Context(), body.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, user)
}

type updateUserRequest struct {
	Username string `json:"username"`
}

// PATCH /api/users/{user}.
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "user")

	var body updateUserRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.UpdateUser(request.Context(), id, body.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, user)
}

// DELETE /api/users/{user}.
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "user")

	found, err := handler.service.DeleteUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !found {
		respond.Error(writer, request, apperr.NotFound("User"))
		return
	}
	respond.NoContent(writer)
}

// GET /api/users/{user}/books.
func (handler *Handler) listSavedBooks(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "user")

	books, err := handler.service.ListSavedBooks(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, books)
}

// POST /api/users/{user}/books/{book}.
func (handler *Handler) saveBook(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "user")
	bookID := requestutil.Param(request, "book")

	saved, err := handler.service.SaveBook(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, saved)
}

// DELETE /api/users/{user}/books/{book}.
func (handler *Handler) removeSavedBook(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "user")
	bookID := requestutil.Param(request, "book")

	found, err := handler.service.RemoveSavedBook(request.Context(), userID, bookID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !found {
		respond.Error(writer, request, apperr.NotFound("SavedBook"))
		return
	}
	respond.NoContent(writer)
}
