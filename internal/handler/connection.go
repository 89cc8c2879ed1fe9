package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mentorship-platform/internal/service"
)

// ConnectionHandler serves the request workflow: send, list, accept,
// reject, cancel and remove.
//
// Every route acts as the authenticated user; ids in the path only name the
// record, never the actor.
type ConnectionHandler struct {
	connections *service.ConnectionService
	logger      *slog.Logger
}

func NewConnectionHandler(connections *service.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{connections: connections, logger: logger}
}

type connectionRequest struct {
	ReceiverID string `json:"receiverId"`
}

// HandleRequest sends a request to another user.
//
// HTTP: POST /connections/request
// REQUEST BODY: {"receiverId": "..."}
// RESPONSE: 201 with the new record; 400 self/same-role, 404 unknown user,
// 409 pending or connected already
func (h *ConnectionHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	var req connectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	created, err := h.connections.CreateRequest(r.Context(), user.ID, req.ReceiverID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, created)
}

// HandleList returns {"active": [...], "pending": [...]}.
//
// HTTP: GET /connections
func (h *ConnectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.connections.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, list)
}

// HandleAccept accepts a pending request the caller received.
//
// HTTP: POST /connections/accept/{id}
func (h *ConnectionHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	accepted, err := h.connections.AcceptRequest(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, accepted)
}

// HandleReject declines a pending request the caller received.
//
// HTTP: POST /connections/reject/{id}
func (h *ConnectionHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.connections.RejectRequest(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "connection request rejected")
}

// HandleCancel withdraws a pending request the caller sent.
//
// HTTP: POST /connections/cancel/{id}
func (h *ConnectionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.connections.CancelRequest(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "connection request cancelled")
}

// HandleRemove deletes a record the caller is party to.
//
// HTTP: DELETE /connections/{id}
func (h *ConnectionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.connections.RemoveConnection(r.Context(), chi.URLParam(r, "id"), user.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, h.logger, http.StatusOK, "connection removed")
}
