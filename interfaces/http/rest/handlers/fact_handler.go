package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

// FactHandler exposes the list and detail views of a session over HTTP.
type FactHandler struct {
	categories *valueobjects.CategoryTable
	logger     *zap.Logger
}

// NewFactHandler creates a new fact handler
func NewFactHandler(categories *valueobjects.CategoryTable, logger *zap.Logger) *FactHandler {
	return &FactHandler{categories: categories, logger: logger}
}

// ListFacts handles GET /api/v1/facts
//
// The collection is refetched when category or sort change, when refresh is
// set, or on the first call of the session. q filters locally.
func (h *FactHandler) ListFacts(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	category := query.Get("category")
	order := query.Get("sort")
	refresh, _ := strconv.ParseBool(query.Get("refresh"))

	needsFetch := refresh || !session.Store.Loaded() ||
		(category != "" && category != session.Store.Category()) ||
		(order != "" && order != session.Store.Sort().String())

	superseded := false
	if needsFetch {
		err := session.List.Apply(r.Context(), category, order)
		switch {
		case errors.Is(err, apperrors.ErrSuperseded):
			superseded = true
		case apperrors.IsValidation(err):
			respondError(h.logger, w, err)
			return
		}
		// Fetch failures keep the previous list and surface as the message.
	}

	if query.Has("q") {
		session.List.Search(query.Get("q"))
	}

	respondJSON(h.logger, w, http.StatusOK, h.listResponse(session, superseded))
}

// CreateFact handles POST /api/v1/facts
func (h *FactHandler) CreateFact(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var fields commands.FactFields
	if err := decodeJSON(r, &fields); err != nil {
		respondBadRequest(h.logger, w, "invalid request body")
		return
	}

	session.List.Form().SetFields(fields)
	fact, err := session.List.SubmitForm(r.Context())
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusCreated, newFactResponse(fact, h.categories, false))
}

// GetFact handles GET /api/v1/facts/{factID}. It focuses the detail view
// on the fact and loads its comments.
func (h *FactHandler) GetFact(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	id := valueobjects.ID(chi.URLParam(r, "factID"))

	if err := session.Detail.Open(r.Context(), id); err != nil {
		if apperrors.IsNotFound(err) {
			respondError(h.logger, w, err)
			return
		}
		if _, known := session.Detail.Fact(); !known {
			respondError(h.logger, w, err)
			return
		}
		// The cached copy is still shown, with the failure as the message.
	}
	respondJSON(h.logger, w, http.StatusOK, newDetailResponse(session, h.categories))
}

// Vote handles POST /api/v1/facts/{factID}/votes/{field}
func (h *FactHandler) Vote(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	id := valueobjects.ID(chi.URLParam(r, "factID"))
	field, err := entities.ParseVoteField(chi.URLParam(r, "field"))
	if err != nil {
		respondError(h.logger, w, apperrors.NewValidation(err.Error()))
		return
	}

	var (
		fact    entities.Fact
		pending bool
	)
	if session.Detail.FocusedID() == id {
		fact, err = session.Detail.Vote(r.Context(), field)
		pending = session.Detail.VotePending()
	} else {
		fact, err = session.List.Vote(r.Context(), id, field)
		pending = session.List.VotePending(id)
	}
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, newFactResponse(fact, h.categories, pending))
}

// RequestEdit handles POST /api/v1/facts/{factID}/edit. The body carries
// the secret key; a match opens the edit form pre-filled from the fact.
func (h *FactHandler) RequestEdit(w http.ResponseWriter, r *http.Request) {
	h.gated(w, r, (*views.DetailController).RequestEdit)
}

// RequestDelete handles POST /api/v1/facts/{factID}/delete. The body
// carries the secret key; a match deletes the fact and its comments.
func (h *FactHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	h.gated(w, r, (*views.DetailController).RequestDelete)
}

func (h *FactHandler) gated(w http.ResponseWriter, r *http.Request, request func(*views.DetailController) error) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var body SecretRequest
	if err := decodeJSON(r, &body); err != nil {
		respondBadRequest(h.logger, w, "invalid request body")
		return
	}
	if err := h.focus(r.Context(), session, valueobjects.ID(chi.URLParam(r, "factID"))); err != nil {
		respondError(h.logger, w, err)
		return
	}

	detail := session.Detail
	if err := request(detail); err != nil {
		respondError(h.logger, w, err)
		return
	}
	if err := detail.VerifySecret(r.Context(), body.SecretKey); err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, newDetailResponse(session, h.categories))
}

// UpdateFact handles PUT /api/v1/facts/{factID}. Only valid while the
// detail view is editing that fact.
func (h *FactHandler) UpdateFact(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	id := valueobjects.ID(chi.URLParam(r, "factID"))
	if session.Detail.FocusedID() != id {
		respondError(h.logger, w, views.ErrInvalidTransition)
		return
	}
	var fields commands.FactFields
	if err := decodeJSON(r, &fields); err != nil {
		respondBadRequest(h.logger, w, "invalid request body")
		return
	}

	if st, _ := session.Detail.GateState(); st != views.Editing {
		respondError(h.logger, w, views.ErrInvalidTransition)
		return
	}
	session.Detail.Form().SetFields(fields)
	if _, err := session.Detail.SubmitEdit(r.Context()); err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, newDetailResponse(session, h.categories))
}

// CancelAction handles POST /api/v1/facts/{factID}/cancel
func (h *FactHandler) CancelAction(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if session.Detail.FocusedID() != valueobjects.ID(chi.URLParam(r, "factID")) {
		respondError(h.logger, w, views.ErrInvalidTransition)
		return
	}
	if err := session.Detail.CancelPrompt(); err != nil {
		respondError(h.logger, w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, newDetailResponse(session, h.categories))
}

// focus opens the detail view on id unless it is already focused.
func (h *FactHandler) focus(ctx context.Context, session *views.Session, id valueobjects.ID) error {
	if session.Detail.FocusedID() == id {
		if _, ok := session.Detail.Fact(); ok {
			return nil
		}
	}
	if err := session.Detail.Open(ctx, id); err != nil {
		if _, ok := session.Detail.Fact(); !ok {
			return err
		}
	}
	return nil
}

func (h *FactHandler) listResponse(session *views.Session, superseded bool) ListResponse {
	visible := session.List.Visible()
	facts := make([]FactResponse, 0, len(visible))
	for _, f := range visible {
		facts = append(facts, newFactResponse(f, h.categories, session.List.VotePending(f.ID)))
	}
	return ListResponse{
		Category:   session.Store.Category(),
		Sort:       session.Store.Sort().String(),
		Search:     session.Store.SearchTerm(),
		Loading:    session.List.Loading(),
		Superseded: superseded,
		Message:    session.List.Message(),
		Facts:      facts,
	}
}

func (h *FactHandler) session(w http.ResponseWriter, r *http.Request) (*views.Session, bool) {
	return sessionOrFail(h.logger, w, r)
}
