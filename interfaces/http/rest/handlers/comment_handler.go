package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/services"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// CommentHandler serves the comment list of a fact.
type CommentHandler struct {
	logger *zap.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(logger *zap.Logger) *CommentHandler {
	return &CommentHandler{logger: logger}
}

// ListComments handles GET /api/v1/facts/{factID}/comments
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrFail(h.logger, w, r)
	if !ok {
		return
	}
	id := valueobjects.ID(chi.URLParam(r, "factID"))

	var entries []services.CommentEntry
	if session.Detail.FocusedID() == id {
		entries = session.Detail.Comments()
	} else {
		loaded, err := session.Comments.LoadComments(r.Context(), id)
		session.Comments.Forget(id)
		if err != nil {
			respondError(h.logger, w, err)
			return
		}
		entries = loaded
	}
	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"facts_id": id,
		"comments": newCommentResponses(entries),
	})
}

// CreateComment handles POST /api/v1/facts/{factID}/comments
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrFail(h.logger, w, r)
	if !ok {
		return
	}
	id := valueobjects.ID(chi.URLParam(r, "factID"))

	var body CommentRequest
	if err := decodeJSON(r, &body); err != nil {
		respondBadRequest(h.logger, w, "invalid request body")
		return
	}

	var (
		entry services.CommentEntry
		err   error
	)
	if session.Detail.FocusedID() == id {
		entry, err = session.Detail.SubmitComment(r.Context(), body.Content)
	} else {
		entry, err = session.Comments.SubmitComment(r.Context(), id, body.Content)
		session.Comments.Forget(id)
	}
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusCreated, newCommentResponse(entry))
}
