package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/services"
	"github.com/zhangshi0512/FactsHub/application/state"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

// ListController drives the list screen: filters, search, the create form
// and the vote buttons on each row.
type ListController struct {
	store      *state.CollectionStore
	facts      *services.FactService
	votes      *services.VoteService
	categories *valueobjects.CategoryTable
	form       *FactForm
	logger     *zap.Logger

	mu      sync.Mutex
	message string
}

// NewListController creates the list controller of one UI session.
func NewListController(
	store *state.CollectionStore,
	facts *services.FactService,
	votes *services.VoteService,
	categories *valueobjects.CategoryTable,
	logger *zap.Logger,
) *ListController {
	return &ListController{
		store:      store,
		facts:      facts,
		votes:      votes,
		categories: categories,
		form:       &FactForm{},
		logger:     logger.Named("list"),
	}
}

// SelectCategory refetches with a new category filter; "all" removes it.
func (c *ListController) SelectCategory(ctx context.Context, category string) error {
	if !c.categories.IsFilter(category) {
		return c.fail(apperrors.NewValidation(fmt.Sprintf("unknown category %q", category)))
	}
	return c.query(ctx, category, c.store.Sort())
}

// SelectSort refetches with a new sort order.
func (c *ListController) SelectSort(ctx context.Context, sort valueobjects.Sort) error {
	if err := sort.Validate(); err != nil {
		return c.fail(apperrors.NewValidation(err.Error()))
	}
	return c.query(ctx, c.store.Category(), sort)
}

// SelectSortString parses a compact sort order such as created_at_desc.
func (c *ListController) SelectSortString(ctx context.Context, order string) error {
	sort, err := valueobjects.ParseSort(order)
	if err != nil {
		return c.fail(apperrors.NewValidation(err.Error()))
	}
	return c.SelectSort(ctx, sort)
}

// Apply changes category and sort with a single refetch. An empty value
// keeps the current setting.
func (c *ListController) Apply(ctx context.Context, category, order string) error {
	if category == "" {
		category = c.store.Category()
	}
	if !c.categories.IsFilter(category) {
		return c.fail(apperrors.NewValidation(fmt.Sprintf("unknown category %q", category)))
	}
	sort := c.store.Sort()
	if order != "" {
		parsed, err := valueobjects.ParseSort(order)
		if err != nil {
			return c.fail(apperrors.NewValidation(err.Error()))
		}
		sort = parsed
	}
	return c.query(ctx, category, sort)
}

// Refresh refetches with the current parameters.
func (c *ListController) Refresh(ctx context.Context) error {
	return c.settle(c.store.Refetch(ctx))
}

func (c *ListController) query(ctx context.Context, category string, sort valueobjects.Sort) error {
	return c.settle(c.store.SetQuery(ctx, category, sort))
}

// settle records the outcome of a refetch. A superseded refetch is not an
// error for the view, the newer one reports instead.
func (c *ListController) settle(err error) error {
	if errors.Is(err, apperrors.ErrSuperseded) {
		return err
	}
	if err != nil {
		return c.fail(err)
	}
	c.clearMessage()
	return nil
}

// Search filters the cached facts locally.
func (c *ListController) Search(term string) {
	c.store.SetSearchTerm(term)
}

// Visible returns the facts to render.
func (c *ListController) Visible() []entities.Fact {
	return c.store.Visible()
}

// Loading reports whether a refetch is outstanding.
func (c *ListController) Loading() bool {
	return c.store.Loading()
}

// Form returns the create form.
func (c *ListController) Form() *FactForm {
	return c.form
}

// ToggleForm opens or closes the create form.
func (c *ListController) ToggleForm() bool {
	return c.form.Toggle()
}

// SubmitForm creates a fact from the form. On success the form is cleared
// and closed; on failure it keeps its values and stays open.
func (c *ListController) SubmitForm(ctx context.Context) (entities.Fact, error) {
	fact, err := c.facts.SubmitCreate(ctx, c.form.Fields())
	if err != nil {
		c.form.Open()
		return entities.Fact{}, c.fail(err)
	}
	c.form.Reset()
	c.form.Close()
	c.clearMessage()
	return fact, nil
}

// Vote votes on a fact shown in the list.
func (c *ListController) Vote(ctx context.Context, id valueobjects.ID, field entities.VoteField) (entities.Fact, error) {
	fact, ok := c.store.Get(id)
	if !ok {
		return entities.Fact{}, c.fail(apperrors.NewNotFound("fact not found"))
	}
	updated, err := c.votes.Vote(ctx, fact, field)
	if errors.Is(err, apperrors.ErrVoteInFlight) {
		return fact, err
	}
	if err != nil {
		return fact, c.fail(err)
	}
	return updated, nil
}

// VotePending reports whether the vote buttons of id are disabled.
func (c *ListController) VotePending(id valueobjects.ID) bool {
	return c.votes.Pending(id)
}

// Categories returns the category table for the sidebar.
func (c *ListController) Categories() []valueobjects.Category {
	return c.categories.List()
}

// Message returns the last error shown to the user.
func (c *ListController) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

func (c *ListController) fail(err error) error {
	c.logger.Debug("list action failed", zap.String("kind", string(apperrors.TypeOf(err))), zap.Error(err))
	c.mu.Lock()
	c.message = apperrors.UserMessage(err)
	c.mu.Unlock()
	return err
}

func (c *ListController) clearMessage() {
	c.mu.Lock()
	c.message = ""
	c.mu.Unlock()
}
