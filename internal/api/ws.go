// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/qisumi/inkvault/internal/catalog"
	"github.com/qisumi/inkvault/internal/platform/authgate"
	"github.com/qisumi/inkvault/internal/platform/constants"
	requestutil "github.com/qisumi/inkvault/internal/platform/request"
	"github.com/qisumi/inkvault/internal/progressbus"
)

// wsHandler bridges the Progress Bus (C6) to the two task-tracking
// WebSocket endpoints described in spec §4.8. It never mutates task state;
// it only snapshots and forwards.
type wsHandler struct {
	catalog  *catalog.Service
	bus      *progressbus.Bus
	gate     *authgate.Gate
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler constructs the task/book WebSocket bridge.
func NewWSHandler(catalogSvc *catalog.Service, bus *progressbus.Bus, gate *authgate.Gate, logger *slog.Logger) *wsHandler {
	return &wsHandler{
		catalog: catalogSvc,
		bus:     bus,
		gate:    gate,
		logger:  logger,
		upgrader: websocket.Upgrader{
			// Origin is already checked by the CORS middleware on the HTTP
			// upgrade request; the socket itself carries no browser-enforced
			// same-origin policy to duplicate here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Routes returns a [chi.Router] configured with the two WebSocket endpoints.
// Mounted at /ws by the caller.
func (handler *wsHandler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/tasks/{task}", handler.serveTask)
	router.Get("/books/{book}", handler.serveBook)
	return router
}

// authorized reports whether r carries a valid auth-gate session, when the
// gate is enabled. Checked after upgrade so an unauthorized connection can
// be closed with the protocol-level 4001 code spec §4.8 calls for, rather
// than a plain HTTP 401 the WebSocket client may not surface to the user.
func (handler *wsHandler) authorized(r *http.Request) bool {
	if !handler.gate.Enabled() {
		return true
	}
	cookie, err := r.Cookie(constants.AuthCookieName)
	if err != nil {
		return false
	}
	_, err = handler.gate.Verify(cookie.Value)
	return err == nil
}

// closeUnauthorized sends the 4001 close frame spec §4.8 reserves for
// unauthorized WebSocket connections.
func closeUnauthorized(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(constants.WSUnauthorizedCloseCode, "unauthorized")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// serveTask handles /ws/tasks/{task_uuid}: an initial snapshot followed by
// every subsequent Progress Bus event for that task.
func (handler *wsHandler) serveTask(w http.ResponseWriter, r *http.Request) {
	taskID := requestutil.Param(r, "task")
	task, err := handler.catalog.GetTask(r.Context(), taskID)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Warn("ws_upgrade_failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	if !handler.authorized(r) {
		closeUnauthorized(conn)
		return
	}

	handler.streamTask(conn, task)
}

// serveBook handles /ws/books/{book_uuid}: resolves the latest
// pending|running task for the book, polling once per second while the book
// is downloading but no task exists yet (a brief window right after a
// download request is accepted).
func (handler *wsHandler) serveBook(w http.ResponseWriter, r *http.Request) {
	bookID := requestutil.Param(r, "book")
	book, err := handler.catalog.GetBook(r.Context(), bookID)
	if err != nil || book == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	conn, err := handler.upgrader.Upgrade(w, r, nil)
	if err != nil {
		handler.logger.Warn("ws_upgrade_failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	if !handler.authorized(r) {
		closeUnauthorized(conn)
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		task, err := handler.catalog.LatestActiveTask(r.Context(), bookID)
		if err == nil && task != nil {
			handler.streamTask(conn, task)
			return
		}

		book, err := handler.catalog.GetBook(r.Context(), bookID)
		if err != nil || book == nil || book.DownloadStatus != catalog.BookDownloading {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"idle"}`))
			return
		}

		select {
		case <-ticker.C:
			continue
		case <-r.Context().Done():
			return
		}
	}
}

// streamTask sends an initial snapshot of task, then forwards Progress Bus
// events for it until the client disconnects or the task reaches a
// terminal state.
func (handler *wsHandler) streamTask(conn *websocket.Conn, task *catalog.Task) {
	if err := conn.WriteJSON(task); err != nil {
		return
	}

	events, subID := handler.bus.Subscribe(task.ID)
	defer handler.bus.Unsubscribe(task.ID, subID)

	pings := make(chan struct{})
	go handler.readPings(conn, pings)

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
			if event.Type == progressbus.EventCompleted || event.Type == progressbus.EventError {
				return
			}
		case <-pings:
			return
		}
	}
}

// readPings answers client-sent {"type":"ping"} frames with {"type":"pong"}
// for liveness, closing pings when the connection drops.
func (handler *wsHandler) readPings(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Type == "ping" {
			if err := conn.WriteJSON(map[string]string{"type": "pong"}); err != nil {
				return
			}
		}
	}
}
