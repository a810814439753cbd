package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

// PlaceholderAuthor is shown on a comment until the store confirms it.
const PlaceholderAuthor = "anonymous"

const tempIDPrefix = "temp-"

// CommentState is the lifecycle of an optimistic comment.
type CommentState string

const (
	CommentPending    CommentState = "pending"
	CommentConfirmed  CommentState = "confirmed"
	CommentRolledBack CommentState = "rolled_back"
)

// CommentEntry is a comment as shown in the detail view. TempID is set for
// entries created locally and kept after confirmation.
type CommentEntry struct {
	entities.Comment
	TempID string       `json:"temp_id,omitempty"`
	State  CommentState `json:"state"`
}

// Pending reports whether the entry still awaits the store.
func (e CommentEntry) Pending() bool {
	return e.State == CommentPending
}

type factComments struct {
	entries []CommentEntry
	// tail is closed once the most recent submission for the fact has been
	// resolved; each submission waits for its predecessor's tail.
	tail chan struct{}
	// pending counts unresolved submissions; a forgotten list is dropped
	// when it reaches zero.
	pending   int
	forgotten bool
}

// CommentService loads comments and submits new ones optimistically.
type CommentService struct {
	remote    ports.RemoteStore
	validator *validation.Validator
	logger    *zap.Logger
	metrics   *observability.Collector
	now       func() time.Time

	mu    sync.Mutex
	lists map[valueobjects.ID]*factComments
}

// NewCommentService creates the comment engine.
func NewCommentService(
	remote ports.RemoteStore,
	validator *validation.Validator,
	logger *zap.Logger,
	metrics *observability.Collector,
) *CommentService {
	return &CommentService{
		remote:    remote,
		validator: validator,
		logger:    logger.Named("comments"),
		metrics:   metrics,
		now:       time.Now,
		lists:     make(map[valueobjects.ID]*factComments),
	}
}

// LoadComments fetches every comment of factID and replaces the local list.
func (s *CommentService) LoadComments(ctx context.Context, factID valueobjects.ID) ([]CommentEntry, error) {
	rows, err := s.remote.Query(ctx, ports.TableComments, ports.Query{
		Filter: ports.Eq(ports.ColumnFactID, factID.String()),
		Order:  &ports.Order{Column: ports.ColumnCreatedAt, Ascending: true},
	})
	if err != nil {
		s.logger.Warn("load comments failed", zap.String("fact_id", factID.String()), zap.Error(err))
		return nil, apperrors.NewFetch("load comments", err)
	}
	comments, err := ports.DecodeRows[entities.Comment](rows)
	if err != nil {
		return nil, apperrors.NewFetch("load comments", err)
	}

	entries := make([]CommentEntry, 0, len(comments))
	for _, c := range comments {
		entries = append(entries, CommentEntry{Comment: c, State: CommentConfirmed})
	}

	s.mu.Lock()
	fc := s.listLocked(factID)
	fc.entries = entries
	fc.forgotten = false
	out := cloneEntries(fc.entries)
	s.mu.Unlock()

	return out, nil
}

// SubmitComment appends a provisional comment immediately, inserts it and
// then swaps it for the stored row, or removes it if the insert fails.
// Submissions for the same fact resolve in submission order.
func (s *CommentService) SubmitComment(ctx context.Context, factID valueobjects.ID, content string) (CommentEntry, error) {
	cmd := commands.SubmitCommentCommand{FactID: factID.String(), Content: content}.Normalize()
	if err := cmd.Validate(s.validator); err != nil {
		return CommentEntry{}, apperrors.NewValidation("comment cannot be empty")
	}

	tempID := tempIDPrefix + uuid.NewString()
	provisional := CommentEntry{
		Comment: entities.Comment{
			ID:        valueobjects.ID(tempID),
			FactID:    factID,
			Content:   cmd.Content,
			UserID:    PlaceholderAuthor,
			CreatedAt: s.now().UTC(),
		},
		TempID: tempID,
		State:  CommentPending,
	}

	s.mu.Lock()
	fc := s.listLocked(factID)
	fc.entries = append(fc.entries, provisional)
	fc.forgotten = false
	fc.pending++
	prev := fc.tail
	done := make(chan struct{})
	fc.tail = done
	s.mu.Unlock()
	defer close(done)

	s.metrics.RecordComment(string(CommentPending))

	rows, err := s.remote.Insert(ctx, ports.TableComments, []ports.Row{{
		ports.ColumnFactID: factID,
		"content":          cmd.Content,
	}})

	confirmed := provisional
	if err == nil && len(rows) > 0 {
		err = ports.DecodeRow(rows[0], &confirmed.Comment)
	}

	if prev != nil {
		<-prev
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.resolvedLocked(factID, fc)
	i := indexOfTemp(fc.entries, tempID)

	if err != nil {
		if i >= 0 {
			fc.entries = append(fc.entries[:i:i], fc.entries[i+1:]...)
		}
		s.metrics.RecordComment(string(CommentRolledBack))
		s.logger.Warn("comment rolled back",
			zap.String("fact_id", factID.String()),
			zap.String("temp_id", tempID),
			zap.Error(err),
		)
		return CommentEntry{TempID: tempID, State: CommentRolledBack, Comment: provisional.Comment},
			apperrors.NewMutation("submit comment", "failed to post comment", err)
	}

	confirmed.State = CommentConfirmed
	if i >= 0 {
		fc.entries[i] = confirmed
	} else {
		// The list was reloaded while the insert was in flight.
		if indexOfID(fc.entries, confirmed.ID) < 0 {
			fc.entries = append(fc.entries, confirmed)
		}
	}
	s.metrics.RecordComment(string(CommentConfirmed))
	s.logger.Debug("comment confirmed",
		zap.String("fact_id", factID.String()),
		zap.String("comment_id", confirmed.ID.String()),
	)
	return confirmed, nil
}

// Comments returns the visible list for factID, pending entries included.
func (s *CommentService) Comments(factID valueobjects.ID) []CommentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, ok := s.lists[factID]
	if !ok {
		return nil
	}
	return cloneEntries(fc.entries)
}

// Forget drops the local list of factID. A list with submissions in flight
// is emptied now and released once the last of them resolves.
func (s *CommentService) Forget(factID valueobjects.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, ok := s.lists[factID]
	if !ok {
		return
	}
	if fc.pending == 0 {
		delete(s.lists, factID)
		return
	}
	fc.entries = nil
	fc.forgotten = true
}

// Tracked returns the number of facts with a local list.
func (s *CommentService) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}

func (s *CommentService) resolvedLocked(factID valueobjects.ID, fc *factComments) {
	fc.pending--
	if fc.pending == 0 && fc.forgotten && s.lists[factID] == fc {
		delete(s.lists, factID)
	}
}

func (s *CommentService) listLocked(factID valueobjects.ID) *factComments {
	fc, ok := s.lists[factID]
	if !ok {
		fc = &factComments{}
		s.lists[factID] = fc
	}
	return fc
}

func indexOfTemp(entries []CommentEntry, tempID string) int {
	for i := range entries {
		if entries[i].TempID == tempID && entries[i].Pending() {
			return i
		}
	}
	return -1
}

func indexOfID(entries []CommentEntry, id valueobjects.ID) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneEntries(entries []CommentEntry) []CommentEntry {
	out := make([]CommentEntry, len(entries))
	copy(out, entries)
	return out
}
