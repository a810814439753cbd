package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/interfaces/http/rest/sessions"
)

// SessionHandler starts and ends UI sessions.
type SessionHandler struct {
	registry *sessions.Registry
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *sessions.Registry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, logger: logger}
}

// CreateSession handles POST /api/v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.registry.Create()
	w.Header().Set(sessions.Header, session.ID)
	respondJSON(h.logger, w, http.StatusCreated, SessionResponse{SessionID: session.ID})
}

// DeleteSession handles DELETE /api/v1/sessions
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessions.Header)
	if id == "" || !h.registry.Delete(id) {
		respondJSON(h.logger, w, http.StatusNotFound, ErrorResponse{
			Error:   true,
			Code:    "UNKNOWN_SESSION",
			Message: "session not found or expired",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
