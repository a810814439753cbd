package handlers

import (
	"time"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/application/services"
	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
)

// FactResponse is a fact as rendered by the list and detail views. The
// secret key is never sent back.
type FactResponse struct {
	ID               valueobjects.ID `json:"id"`
	Title            string          `json:"title"`
	DisplayTitle     string          `json:"display_title"`
	Text             string          `json:"text"`
	Source           string          `json:"source"`
	Category         string          `json:"category"`
	CategoryColor    string          `json:"category_color,omitempty"`
	ImageURL         string          `json:"image_url,omitempty"`
	VotesInteresting int             `json:"votesInteresting"`
	VotesMindblowing int             `json:"votesMindblowing"`
	VotesFalse       int             `json:"votesFalse"`
	Disputed         bool            `json:"disputed"`
	Protected        bool            `json:"protected"`
	VotePending      bool            `json:"vote_pending"`
	CreatedAt        time.Time       `json:"created_at"`
	ShortUserID      string          `json:"short_user_id,omitempty"`
}

func newFactResponse(f entities.Fact, categories *valueobjects.CategoryTable, pending bool) FactResponse {
	return FactResponse{
		ID:               f.ID,
		Title:            f.Title,
		DisplayTitle:     f.DisplayTitle(),
		Text:             f.Text,
		Source:           f.Source,
		Category:         f.Category,
		CategoryColor:    categories.ColorOf(f.Category),
		ImageURL:         f.ImageURL,
		VotesInteresting: f.VotesInteresting,
		VotesMindblowing: f.VotesMindblowing,
		VotesFalse:       f.VotesFalse,
		Disputed:         f.IsDisputed(),
		Protected:        f.HasSecret(),
		VotePending:      pending,
		CreatedAt:        f.CreatedAt,
		ShortUserID:      f.ShortUserID(),
	}
}

// ListResponse is the list view.
type ListResponse struct {
	Category   string         `json:"category"`
	Sort       string         `json:"sort"`
	Search     string         `json:"search"`
	Loading    bool           `json:"loading"`
	Superseded bool           `json:"superseded,omitempty"`
	Message    string         `json:"message,omitempty"`
	Facts      []FactResponse `json:"facts"`
}

// CommentResponse is one comment entry.
type CommentResponse struct {
	ID          valueobjects.ID       `json:"id"`
	FactID      valueobjects.ID       `json:"facts_id"`
	Content     string                `json:"content"`
	ShortUserID string                `json:"short_user_id"`
	CreatedAt   time.Time             `json:"created_at"`
	State       services.CommentState `json:"state"`
}

func newCommentResponses(entries []services.CommentEntry) []CommentResponse {
	out := make([]CommentResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, newCommentResponse(e))
	}
	return out
}

func newCommentResponse(e services.CommentEntry) CommentResponse {
	return CommentResponse{
		ID:          e.ID,
		FactID:      e.FactID,
		Content:     e.Content,
		ShortUserID: e.ShortUserID(),
		CreatedAt:   e.CreatedAt,
		State:       e.State,
	}
}

// DetailResponse is the detail view.
type DetailResponse struct {
	Fact           *FactResponse       `json:"fact,omitempty"`
	Comments       []CommentResponse   `json:"comments"`
	State          views.GateState     `json:"state"`
	PendingAction  string              `json:"pending_action,omitempty"`
	Unavailable    bool                `json:"unavailable"`
	NavigateToList bool                `json:"navigate_to_list"`
	Form           *commands.FactFields `json:"form,omitempty"`
	Message        string              `json:"message,omitempty"`
}

func newDetailResponse(session *views.Session, categories *valueobjects.CategoryTable) DetailResponse {
	d := session.Detail
	st, action := d.GateState()
	resp := DetailResponse{
		Comments:       newCommentResponses(d.Comments()),
		State:          st,
		Unavailable:    d.Unavailable(),
		NavigateToList: d.ShouldNavigateToList(),
		Message:        d.Message(),
	}
	if action != views.ActionNone {
		resp.PendingAction = action.String()
	}
	if fact, ok := d.Fact(); ok {
		fr := newFactResponse(fact, categories, d.VotePending())
		resp.Fact = &fr
	}
	if st == views.Editing {
		fields := d.Form().Fields()
		resp.Form = &fields
	}
	return resp
}

// SecretRequest carries the candidate key for edit and delete.
type SecretRequest struct {
	SecretKey string `json:"secret_key"`
}

// CommentRequest is the body of POST /facts/{id}/comments.
type CommentRequest struct {
	Content string `json:"content"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}
