// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/qisumi/inkvault/internal/platform/apperr"
	"github.com/qisumi/inkvault/internal/platform/authgate"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/platform/respond"
)

// authHandler implements the app-wide password gate's login/logout/status
// endpoints described in spec §4.8. It holds no state of its own beyond the
// [authgate.Gate]; there is no per-user session store.
type authHandler struct {
	gate *authgate.Gate
}

// NewAuthHandler constructs the login/logout/status handler.
func NewAuthHandler(gate *authgate.Gate) *authHandler {
	return &authHandler{gate: gate}
}

type loginRequest struct {
	Password string `json:"password"`
}

/*
POST /api/auth/login.

Description: Verifies the supplied password against the configured app
password and, on success, sets the signed auth_token cookie.

Response:
  - 200: {"authenticated": true}
  - 401: ErrUnauthorized
*/
func (handler *authHandler) login(writer http.ResponseWriter, request *http.Request) {
	if !handler.gate.Enabled() {
		respond.OK(writer, map[string]bool{"authenticated": true})
		return
	}

	var body loginRequest
	if err := requestutil.DecodeJSON(request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.gate.CheckPassword(body.Password); err != nil {
		respond.Error(writer, request, apperr.Unauthorized("invalid password"))
		return
	}

	token, expiresAt, err := handler.gate.Issue()
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	handler.gate.SetCookie(writer, token, expiresAt)
	respond.OK(writer, map[string]bool{"authenticated": true})
}

/*
POST /api/auth/logout.

Response:
  - 204: No Content
*/
func (handler *authHandler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.gate.ClearCookie(writer)
	respond.NoContent(writer)
}

/*
GET /api/auth/status.

Description: Reports whether the gate is enabled and, if so, whether the
caller currently carries a valid session.

Response:
  - 200: {"auth_enabled": bool, "authenticated": bool}
*/
func (handler *authHandler) status(writer http.ResponseWriter, request *http.Request) {
	if !handler.gate.Enabled() {
		respond.OK(writer, map[string]bool{"auth_enabled": false, "authenticated": true})
		return
	}

	session := requestutil.Session(request)
	respond.OK(writer, map[string]bool{"auth_enabled": true, "authenticated": session != nil})
}
