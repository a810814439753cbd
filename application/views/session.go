package views

import (
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/services"
	"github.com/zhangshi0512/FactsHub/application/state"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

// Session is one UI session: a collection store shared by a list and a
// detail controller, and the engines that patch it.
type Session struct {
	ID       string
	Store    *state.CollectionStore
	Facts    *services.FactService
	Votes    *services.VoteService
	Comments *services.CommentService
	List     *ListController
	Detail   *DetailController
}

// SessionFactory builds sessions over one remote store.
type SessionFactory struct {
	Remote     ports.RemoteStore
	Categories *valueobjects.CategoryTable
	Validator  *validation.Validator
	Logger     *zap.Logger
	Metrics    *observability.Collector
	FetchLimit int
	// InitialSort is used before the user picks one.
	InitialSort valueobjects.Sort
}

// New creates a session with the given id.
func (f *SessionFactory) New(id string) *Session {
	logger := f.Logger.With(zap.String("session_id", id))

	sort := f.InitialSort
	if sort.Validate() != nil {
		sort = valueobjects.DefaultSort
	}

	store := state.NewCollectionStore(f.Remote, logger,
		state.WithFetchLimit(f.FetchLimit),
		state.WithInitialQuery(valueobjects.AllCategories, sort),
		state.WithMetrics(f.Metrics),
	)
	facts := services.NewFactService(f.Remote, store, f.Validator, logger, f.Metrics)
	votes := services.NewVoteService(f.Remote, store, logger, f.Metrics)
	comments := services.NewCommentService(f.Remote, f.Validator, logger, f.Metrics)

	return &Session{
		ID:       id,
		Store:    store,
		Facts:    facts,
		Votes:    votes,
		Comments: comments,
		List:     NewListController(store, facts, votes, f.Categories, logger),
		Detail:   NewDetailController(store, facts, votes, comments, logger),
	}
}
