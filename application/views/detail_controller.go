package views

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/application/services"
	"github.com/zhangshi0512/FactsHub/application/state"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

// DetailController drives the detail screen of one focused fact. It keeps a
// copy of the fact in sync with the collection through a subscription.
type DetailController struct {
	store    *state.CollectionStore
	facts    *services.FactService
	votes    *services.VoteService
	comments *services.CommentService
	logger   *zap.Logger

	gate SecretGate
	form FactForm

	mu          sync.Mutex
	id          valueobjects.ID
	fact        entities.Fact
	loaded      bool
	unavailable bool
	message     string
	unsubscribe func()
}

// NewDetailController creates the detail controller of one UI session.
func NewDetailController(
	store *state.CollectionStore,
	facts *services.FactService,
	votes *services.VoteService,
	comments *services.CommentService,
	logger *zap.Logger,
) *DetailController {
	return &DetailController{
		store:    store,
		facts:    facts,
		votes:    votes,
		comments: comments,
		logger:   logger.Named("detail"),
	}
}

// Open focuses id. The cached copy is shown at once while the fact and its
// comments load in parallel; a missing fact makes the view unavailable.
func (d *DetailController) Open(ctx context.Context, id valueobjects.ID) error {
	d.Close()

	d.mu.Lock()
	d.id = id
	if cached, ok := d.store.Get(id); ok {
		d.fact = cached
		d.loaded = true
	}
	d.unsubscribe = d.store.Subscribe(d.onEvent)
	d.mu.Unlock()
	d.gate.Reset()

	var (
		fetched    entities.Fact
		commentErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := d.facts.FetchFact(gctx, id)
		if err != nil {
			return err
		}
		fetched = f
		return nil
	})
	g.Go(func() error {
		_, commentErr = d.comments.LoadComments(gctx, id)
		return nil
	})

	if err := g.Wait(); err != nil {
		if apperrors.IsNotFound(err) {
			d.markUnavailable()
		}
		return d.fail(err)
	}

	d.store.UpdateLocal(fetched)

	d.mu.Lock()
	if d.id == id {
		d.fact = fetched
		d.loaded = true
	}
	d.mu.Unlock()

	if commentErr != nil {
		return d.fail(commentErr)
	}
	d.clearMessage()
	return nil
}

// Close drops the focus and stops observing the collection.
func (d *DetailController) Close() {
	d.mu.Lock()
	unsubscribe := d.unsubscribe
	if d.id != "" {
		d.comments.Forget(d.id)
	}
	d.unsubscribe = nil
	d.id = ""
	d.fact = entities.Fact{}
	d.loaded = false
	d.unavailable = false
	d.message = ""
	d.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	d.gate.Reset()
	d.form.Reset()
	d.form.Close()
}

func (d *DetailController) onEvent(ev state.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.id == "" {
		return
	}
	switch ev.Kind {
	case state.EventUpserted:
		if ev.Fact.ID == d.id {
			d.fact = ev.Fact
			d.loaded = true
		}
	case state.EventRemoved:
		if ev.ID == d.id {
			d.unavailable = true
		}
	}
}

// Fact returns the focused fact. ok is false until it is known or once it is
// unavailable.
func (d *DetailController) Fact() (entities.Fact, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fact, d.loaded && !d.unavailable
}

// FocusedID returns the id of the focused fact.
func (d *DetailController) FocusedID() valueobjects.ID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// Unavailable reports whether the focused fact was deleted or never existed.
func (d *DetailController) Unavailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unavailable
}

// ShouldNavigateToList reports whether the host should leave the detail
// view and show the list.
func (d *DetailController) ShouldNavigateToList() bool {
	st, _ := d.gate.State()
	return d.Unavailable() || st == Deleted
}

// Vote increments field on the focused fact.
func (d *DetailController) Vote(ctx context.Context, field entities.VoteField) (entities.Fact, error) {
	fact, ok := d.Fact()
	if !ok {
		return entities.Fact{}, d.fail(apperrors.NewNotFound("fact is not available"))
	}
	updated, err := d.votes.Vote(ctx, fact, field)
	if errors.Is(err, apperrors.ErrVoteInFlight) {
		return fact, err
	}
	if err != nil {
		return fact, d.fail(err)
	}

	// The subscription already applied it if the fact is cached.
	d.mu.Lock()
	if d.id == updated.ID {
		d.fact = updated
	}
	d.mu.Unlock()
	return updated, nil
}

// VotePending reports whether the vote buttons are disabled.
func (d *DetailController) VotePending() bool {
	return d.votes.Pending(d.FocusedID())
}

// Comments returns the comment list including pending entries.
func (d *DetailController) Comments() []services.CommentEntry {
	return d.comments.Comments(d.FocusedID())
}

// SubmitComment posts a comment on the focused fact.
func (d *DetailController) SubmitComment(ctx context.Context, content string) (services.CommentEntry, error) {
	id := d.FocusedID()
	if id == "" {
		return services.CommentEntry{}, d.fail(apperrors.NewNotFound("no fact is open"))
	}
	entry, err := d.comments.SubmitComment(ctx, id, content)
	if err != nil {
		return entry, d.fail(err)
	}
	return entry, nil
}

// GateState returns the secret-key state and the pending action.
func (d *DetailController) GateState() (GateState, PendingAction) {
	return d.gate.State()
}

// RequestEdit shows the secret prompt for an edit.
func (d *DetailController) RequestEdit() error {
	if _, ok := d.Fact(); !ok {
		return d.fail(apperrors.NewNotFound("fact is not available"))
	}
	return d.gate.RequestEdit()
}

// RequestDelete shows the secret prompt for a delete.
func (d *DetailController) RequestDelete() error {
	if _, ok := d.Fact(); !ok {
		return d.fail(apperrors.NewNotFound("fact is not available"))
	}
	return d.gate.RequestDelete()
}

// CancelPrompt abandons the prompt or the edit.
func (d *DetailController) CancelPrompt() error {
	if err := d.gate.Cancel(); err != nil {
		return err
	}
	d.form.Close()
	return nil
}

// VerifySecret checks candidate against the focused fact's key and carries
// out the pending action. A correct key for edit opens the form pre-filled
// from the fact; for delete it runs the cascading delete.
func (d *DetailController) VerifySecret(ctx context.Context, candidate string) error {
	fact, ok := d.Fact()
	if !ok {
		return d.fail(apperrors.NewNotFound("fact is not available"))
	}

	action, err := d.gate.Verify(candidate, fact.SecretKey)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return d.fail(err)
	}

	switch action {
	case ActionEdit:
		d.form.SetFields(commands.FieldsFromFact(fact))
		d.form.Open()
		d.clearMessage()
		return nil
	case ActionDelete:
		if err := d.facts.DeleteFact(ctx, fact.ID); err != nil {
			d.gate.DeleteFailed()
			return d.fail(err)
		}
		d.gate.DeleteSucceeded()
		d.markUnavailable()
		d.clearMessage()
		return nil
	}
	return nil
}

// Form returns the edit form.
func (d *DetailController) Form() *FactForm {
	return &d.form
}

// SubmitEdit saves the edit form. On success the form is cleared and closed
// and the view returns to Viewing; on failure it stays in Editing.
func (d *DetailController) SubmitEdit(ctx context.Context) (entities.Fact, error) {
	if st, _ := d.gate.State(); st != Editing {
		return entities.Fact{}, ErrInvalidTransition
	}
	id := d.FocusedID()

	updated, err := d.facts.SubmitEdit(ctx, id, d.form.Fields())
	if err != nil {
		return entities.Fact{}, d.fail(err)
	}

	d.mu.Lock()
	if d.id == updated.ID {
		d.fact = updated
	}
	d.mu.Unlock()

	d.form.Reset()
	d.form.Close()
	d.gate.EditSaved()
	d.clearMessage()
	return updated, nil
}

// Message returns the last error shown to the user.
func (d *DetailController) Message() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.message
}

func (d *DetailController) markUnavailable() {
	d.mu.Lock()
	d.unavailable = true
	d.mu.Unlock()
}

func (d *DetailController) fail(err error) error {
	d.logger.Debug("detail action failed",
		zap.String("fact_id", d.FocusedID().String()),
		zap.String("kind", string(apperrors.TypeOf(err))),
		zap.Error(err),
	)
	d.mu.Lock()
	d.message = apperrors.UserMessage(err)
	d.mu.Unlock()
	return err
}

func (d *DetailController) clearMessage() {
	d.mu.Lock()
	d.message = ""
	d.mu.Unlock()
}
