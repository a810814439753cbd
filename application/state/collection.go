// Package state holds the fact collection shared by the list and detail
// views of one UI session.
package state

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

// DefaultFetchLimit caps the number of facts held in the collection.
const DefaultFetchLimit = 1000

// EventKind identifies a change to the collection.
type EventKind int

const (
	// EventReplaced follows a successful refetch.
	EventReplaced EventKind = iota
	// EventUpserted follows UpsertLocal and a successful UpdateLocal;
	// Event.Fact holds the new value.
	EventUpserted
	// EventRemoved follows RemoveLocal; Event.ID holds the removed id.
	EventRemoved
)

// Event describes one change to the collection.
type Event struct {
	Kind EventKind
	Fact entities.Fact
	ID   valueobjects.ID
}

// Listener receives collection events. It runs after the store lock is
// released, so it may call back into the store.
type Listener func(Event)

// Option configures a CollectionStore.
type Option func(*CollectionStore)

// WithFetchLimit overrides DefaultFetchLimit.
func WithFetchLimit(limit int) Option {
	return func(s *CollectionStore) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithInitialQuery sets the query parameters used before the first SetQuery.
func WithInitialQuery(category string, sort valueobjects.Sort) Option {
	return func(s *CollectionStore) {
		s.category = category
		s.sort = sort
	}
}

// WithMetrics counts discarded refetches on c.
func WithMetrics(c *observability.Collector) Option {
	return func(s *CollectionStore) {
		s.metrics = c
	}
}

// CollectionStore owns the cached facts and the active query parameters.
// Every engine that changes remote state patches the cache through
// UpsertLocal, UpdateLocal or RemoveLocal so all views observe the same
// values.
type CollectionStore struct {
	remote  ports.RemoteStore
	logger  *zap.Logger
	metrics *observability.Collector
	limit   int

	mu         sync.Mutex
	facts      []entities.Fact
	category   string
	sort       valueobjects.Sort
	searchTerm string

	// seq is the sequence number of the latest issued refetch; only a
	// response carrying it may be applied.
	seq     uint64
	cancel  context.CancelFunc
	loading bool
	loaded  bool

	listeners    map[int]Listener
	nextListener int
}

// NewCollectionStore creates an empty collection over remote.
func NewCollectionStore(remote ports.RemoteStore, logger *zap.Logger, opts ...Option) *CollectionStore {
	s := &CollectionStore{
		remote:    remote,
		logger:    logger.Named("collection"),
		limit:     DefaultFetchLimit,
		category:  valueobjects.AllCategories,
		sort:      valueobjects.DefaultSort,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQuery stores new query parameters and refetches. A refetch still in
// flight is cancelled and its result discarded.
func (s *CollectionStore) SetQuery(ctx context.Context, category string, sort valueobjects.Sort) error {
	s.mu.Lock()
	s.category = category
	s.sort = sort
	s.mu.Unlock()

	return s.Refetch(ctx)
}

// Refetch queries the facts table with the active parameters and replaces
// the cache wholesale on success. On failure the cache is left untouched.
// A refetch overtaken by a newer one returns ErrSuperseded without
// touching the cache.
func (s *CollectionStore) Refetch(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loading = true
	q := s.queryLocked()
	category, sort := s.category, s.sort
	s.mu.Unlock()
	defer cancel()

	s.logger.Debug("refetching facts",
		zap.Uint64("seq", seq),
		zap.String("category", category),
		zap.String("sort", sort.String()),
	)

	rows, err := s.remote.Query(ctx, ports.TableFacts, q)
	var facts []entities.Fact
	if err == nil {
		facts, err = ports.DecodeRows[entities.Fact](rows)
	}

	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded refetch", zap.Uint64("seq", seq))
		s.metrics.RecordSupersededRefetch()
		return apperrors.ErrSuperseded
	}
	s.loading = false
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("refetch failed", zap.Uint64("seq", seq), zap.Error(err))
		return apperrors.NewFetch("refetch facts", err)
	}
	if len(facts) > s.limit {
		facts = facts[:s.limit]
	}
	s.facts = facts
	s.loaded = true
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.logger.Debug("refetch applied", zap.Uint64("seq", seq), zap.Int("count", len(facts)))
	emit(listeners, Event{Kind: EventReplaced})
	return nil
}

func (s *CollectionStore) queryLocked() ports.Query {
	q := ports.Query{
		Order: &ports.Order{
			Column:    s.sort.Field.Column(),
			Ascending: s.sort.Ascending(),
		},
		Limit: s.limit,
	}
	if s.category != "" && s.category != valueobjects.AllCategories {
		q.Filter = ports.Eq(ports.ColumnCategory, s.category)
	}
	return q
}

// SetSearchTerm stores the case-folded term. It never triggers a refetch.
func (s *CollectionStore) SetSearchTerm(term string) {
	s.mu.Lock()
	s.searchTerm = strings.ToLower(term)
	s.mu.Unlock()
}

// Visible returns the cached facts whose title or text contains the search
// term, in cache order.
func (s *CollectionStore) Visible() []entities.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entities.Fact, 0, len(s.facts))
	for _, f := range s.facts {
		if f.Matches(s.searchTerm) {
			out = append(out, f)
		}
	}
	return out
}

// Facts returns a copy of the whole cache.
func (s *CollectionStore) Facts() []entities.Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Fact, len(s.facts))
	copy(out, s.facts)
	return out
}

// Get returns the cached fact with the given id.
func (s *CollectionStore) Get(id valueobjects.ID) (entities.Fact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.facts[i], true
	}
	return entities.Fact{}, false
}

// UpsertLocal replaces the fact with the same id, or inserts f at the front.
func (s *CollectionStore) UpsertLocal(f entities.Fact) {
	s.mu.Lock()
	if i := s.indexLocked(f.ID); i >= 0 {
		s.facts[i] = f
	} else {
		s.facts = append([]entities.Fact{f}, s.facts...)
		if len(s.facts) > s.limit {
			s.facts = s.facts[:s.limit]
		}
	}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	emit(listeners, Event{Kind: EventUpserted, Fact: f, ID: f.ID})
}

// UpdateLocal replaces the cached copy of f and reports whether one existed.
// Facts outside the loaded collection are left out of it.
func (s *CollectionStore) UpdateLocal(f entities.Fact) bool {
	s.mu.Lock()
	i := s.indexLocked(f.ID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.facts[i] = f
	listeners := s.listenersLocked()
	s.mu.Unlock()

	emit(listeners, Event{Kind: EventUpserted, Fact: f, ID: f.ID})
	return true
}

// RemoveLocal drops the fact with the given id. Listeners are notified even
// when the id was not cached so a detail view opened by direct lookup still
// learns about the deletion.
func (s *CollectionStore) RemoveLocal(id valueobjects.ID) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i >= 0 {
		s.facts = append(s.facts[:i:i], s.facts[i+1:]...)
	}
	listeners := s.listenersLocked()
	s.mu.Unlock()

	emit(listeners, Event{Kind: EventRemoved, ID: id})
	return i >= 0
}

// Category returns the active category filter.
func (s *CollectionStore) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// Sort returns the active sort.
func (s *CollectionStore) Sort() valueobjects.Sort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// SearchTerm returns the case-folded search term.
func (s *CollectionStore) SearchTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchTerm
}

// Loading reports whether the latest refetch is still outstanding.
func (s *CollectionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Loaded reports whether a refetch has been applied at least once.
func (s *CollectionStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Subscribe registers l and returns a function that removes it.
func (s *CollectionStore) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *CollectionStore) indexLocked(id valueobjects.ID) int {
	for i := range s.facts {
		if s.facts[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *CollectionStore) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

func emit(listeners []Listener, ev Event) {
	for _, l := range listeners {
		l(ev)
	}
}
