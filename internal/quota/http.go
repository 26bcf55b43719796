// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package quota

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
)

// Handler implements the HTTP interface for quota inspection. Mounted at
// /api/tasks/quota by the caller, alongside the download engine's task
// endpoints.
type Handler struct {
	ledger    *Ledger
	providers []string
}

// NewHandler constructs a quota [Handler]. providers lists every provider
// the service knows about, used to answer the unscoped usage request.
func NewHandler(ledger *Ledger, providers []string) *Handler {
	return &Handler{ledger: ledger, providers: providers}
}

// Routes returns a [chi.Router] configured with the quota inspection
// endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.getAllUsage)
	router.Get("/{provider}", handler.getUsage)

	return router
}

/*
GET /api/tasks/quota.

Description: Returns today's usage snapshot for every known provider.

Response:
  - 200: []Usage
*/
func (handler *Handler) getAllUsage(writer http.ResponseWriter, request *http.Request) {
	usages := make([]*Usage, 0, len(handler.providers))

	for _, provider := range handler.providers {
		usage, err := handler.ledger.GetUsage(request.Context(), provider)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		usages = append(usages, usage)
	}

	respond.OK(writer, usages)
}

/*
GET /api/tasks/quota/{provider}.

Description: Returns today's usage snapshot for a single provider.

Response:
  - 200: Usage
  - 404: ErrNotFound
*/
func (handler *Handler) getUsage(writer http.ResponseWriter, request *http.Request) {
	provider := requestutil.Param(request, "provider")
	if !handler.isKnownProvider(provider) {
		respond.Error(writer, request, apperr.NotFound("provider"))
		return
	}

	usage, err := handler.ledger.GetUsage(request.Context(), provider)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, usage)
}

func (handler *Handler) isKnownProvider(provider string) bool {
	for _, p := range handler.providers {
		if p == provider {
			return true
		}
	}
	return false
}
