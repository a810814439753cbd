package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/internal/fixtures"
	"github.com/zhangshi0512/FactsHub/internal/mocks"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/observability"
)

func factsQuery(category string, sort valueobjects.Sort, limit int) ports.Query {
	q := ports.Query{
		Order: &ports.Order{Column: sort.Field.Column(), Ascending: sort.Ascending()},
		Limit: limit,
	}
	if category != valueobjects.AllCategories {
		q.Filter = ports.Eq(ports.ColumnCategory, category)
	}
	return q
}

func TestCollectionStore_Refetch(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	a := fixtures.NewFactBuilder().WithID("1").WithTitle("A").Build()
	b := fixtures.NewFactBuilder().WithID("2").WithTitle("B").Build()

	remote.On("Query", mock.Anything, ports.TableFacts, factsQuery("all", valueobjects.DefaultSort, DefaultFetchLimit)).
		Return(fixtures.Rows(a, b), nil)

	store := NewCollectionStore(remote, zap.NewNop())
	var events []Event
	store.Subscribe(func(ev Event) { events = append(events, ev) })

	require.NoError(t, store.Refetch(ctx))

	facts := store.Facts()
	require.Len(t, facts, 2)
	assert.Equal(t, valueobjects.ID("1"), facts[0].ID)
	assert.Equal(t, "B", facts[1].Title)
	assert.False(t, store.Loading())
	assert.True(t, store.Loaded())
	require.Len(t, events, 1)
	assert.Equal(t, EventReplaced, events[0].Kind)
	remote.AssertExpectations(t)
}

func TestCollectionStore_SetQueryPushesFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	sort := valueobjects.Sort{Field: valueobjects.SortByVotesInteresting, Direction: valueobjects.Desc}

	remote.On("Query", mock.Anything, ports.TableFacts, factsQuery("science", sort, 50)).
		Return([]ports.Row{}, nil)

	store := NewCollectionStore(remote, zap.NewNop(), WithFetchLimit(50))
	require.NoError(t, store.SetQuery(ctx, "science", sort))

	assert.Equal(t, "science", store.Category())
	assert.Equal(t, sort, store.Sort())
	assert.Empty(t, store.Facts())
	remote.AssertExpectations(t)
}

func TestCollectionStore_FailedRefetchKeepsCache(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	a := fixtures.NewFactBuilder().WithID("1").Build()

	remote.On("Query", mock.Anything, ports.TableFacts, mock.Anything).Return(fixtures.Rows(a), nil).Once()
	remote.On("Query", mock.Anything, ports.TableFacts, mock.Anything).Return(nil, errors.New("503")).Once()

	store := NewCollectionStore(remote, zap.NewNop())
	require.NoError(t, store.Refetch(ctx))

	err := store.SetQuery(ctx, "history", valueobjects.DefaultSort)
	require.Error(t, err)
	assert.True(t, apperrors.IsFetch(err))
	assert.Len(t, store.Facts(), 1, "cache untouched on failure")
	assert.False(t, store.Loading())
}

// gatedStore blocks queries for one category until released.
type gatedStore struct {
	ports.RemoteStore
	mu       sync.Mutex
	rows     map[string][]ports.Row
	started  chan string
	release  chan struct{}
	honorCtx bool
	blocking string
}

func (g *gatedStore) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	category := valueobjects.AllCategories
	if len(q.Filter) > 0 {
		category = q.Filter[0].Value
	}
	g.started <- category

	if category == g.blocking {
		if g.honorCtx {
			select {
			case <-g.release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			<-g.release
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rows[category], nil
}

func newGatedStore(honorCtx bool) *gatedStore {
	science := fixtures.NewFactBuilder().WithID("1").WithCategory("science").Build()
	history := fixtures.NewFactBuilder().WithID("2").WithCategory("history").Build()
	return &gatedStore{
		rows: map[string][]ports.Row{
			"science": fixtures.Rows(science),
			"history": fixtures.Rows(history),
		},
		started:  make(chan string, 4),
		release:  make(chan struct{}),
		honorCtx: honorCtx,
		blocking: "science",
	}
}

func TestCollectionStore_NewerQuerySupersedesOlder(t *testing.T) {
	for _, honorCtx := range []bool{true, false} {
		name := "late response discarded"
		if honorCtx {
			name = "older request cancelled"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			remote := newGatedStore(honorCtx)
			metrics := observability.NewCollector("test")
			store := NewCollectionStore(remote, zap.NewNop(), WithMetrics(metrics))

			var replaced int
			var mu sync.Mutex
			store.Subscribe(func(ev Event) {
				if ev.Kind == EventReplaced {
					mu.Lock()
					replaced++
					mu.Unlock()
				}
			})

			first := make(chan error, 1)
			go func() {
				first <- store.SetQuery(ctx, "science", valueobjects.DefaultSort)
			}()
			assert.Equal(t, "science", <-remote.started)
			assert.True(t, store.Loading())

			require.NoError(t, store.SetQuery(ctx, "history", valueobjects.DefaultSort))
			<-remote.started

			// The newer query is applied and loading cleared while the
			// older one is still outstanding.
			facts := store.Facts()
			require.Len(t, facts, 1)
			assert.Equal(t, "history", facts[0].Category)
			assert.False(t, store.Loading())

			close(remote.release)
			select {
			case err := <-first:
				assert.ErrorIs(t, err, apperrors.ErrSuperseded)
			case <-time.After(2 * time.Second):
				t.Fatal("superseded refetch did not return")
			}

			facts = store.Facts()
			require.Len(t, facts, 1)
			assert.Equal(t, "history", facts[0].Category, "stale result never applied")
			assert.False(t, store.Loading())
			mu.Lock()
			assert.Equal(t, 1, replaced)
			mu.Unlock()
			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SupersededRefetches))
		})
	}
}

func TestCollectionStore_Search(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	octopus := fixtures.NewFactBuilder().WithID("1").WithTitle("Octopus").WithText("Three hearts").Build()
	honey := fixtures.NewFactBuilder().WithID("2").WithTitle("Honey").WithText("Never spoils").Build()
	remote.On("Query", mock.Anything, ports.TableFacts, mock.Anything).Return(fixtures.Rows(octopus, honey), nil).Once()

	store := NewCollectionStore(remote, zap.NewNop())
	require.NoError(t, store.Refetch(ctx))

	store.SetSearchTerm("HEARTS")
	visible := store.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Octopus", visible[0].Title)
	assert.Len(t, store.Facts(), 2)

	store.SetSearchTerm("")
	assert.Len(t, store.Visible(), 2)

	// Searching never queries the remote store.
	remote.AssertNumberOfCalls(t, "Query", 1)
}

func TestCollectionStore_UpsertAndRemoveLocal(t *testing.T) {
	remote := new(mocks.MockRemoteStore)
	store := NewCollectionStore(remote, zap.NewNop(), WithFetchLimit(2))

	var events []Event
	unsubscribe := store.Subscribe(func(ev Event) { events = append(events, ev) })

	store.UpsertLocal(fixtures.NewFactBuilder().WithID("1").Build())
	store.UpsertLocal(fixtures.NewFactBuilder().WithID("2").Build())
	store.UpsertLocal(fixtures.NewFactBuilder().WithID("3").Build())

	facts := store.Facts()
	require.Len(t, facts, 2, "capped at the fetch limit")
	assert.Equal(t, valueobjects.ID("3"), facts[0].ID, "new facts are prepended")
	assert.Equal(t, valueobjects.ID("2"), facts[1].ID)

	store.UpsertLocal(fixtures.NewFactBuilder().WithID("2").WithVotes(9, 0, 0).Build())
	got, ok := store.Get("2")
	require.True(t, ok)
	assert.Equal(t, 9, got.VotesInteresting)
	assert.Equal(t, valueobjects.ID("2"), store.Facts()[1].ID, "replaced in place")

	assert.True(t, store.RemoveLocal("3"))
	assert.False(t, store.RemoveLocal("42"))
	_, ok = store.Get("3")
	assert.False(t, ok)

	require.Len(t, events, 6)
	assert.Equal(t, EventUpserted, events[3].Kind)
	assert.Equal(t, EventRemoved, events[5].Kind)
	assert.Equal(t, valueobjects.ID("42"), events[5].ID)

	unsubscribe()
	store.UpsertLocal(entities.Fact{ID: "7"})
	assert.Len(t, events, 6)
	remote.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestCollectionStore_UpdateLocal(t *testing.T) {
	remote := new(mocks.MockRemoteStore)
	store := NewCollectionStore(remote, zap.NewNop())
	store.UpsertLocal(fixtures.NewFactBuilder().WithID("1").Build())

	var events []Event
	store.Subscribe(func(ev Event) { events = append(events, ev) })

	assert.True(t, store.UpdateLocal(fixtures.NewFactBuilder().WithID("1").WithVotes(3, 0, 0).Build()))
	got, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, 3, got.VotesInteresting)

	assert.False(t, store.UpdateLocal(fixtures.NewFactBuilder().WithID("2").Build()))
	_, ok = store.Get("2")
	assert.False(t, ok, "unknown facts are not inserted")
	assert.Len(t, store.Facts(), 1)

	require.Len(t, events, 1)
	assert.Equal(t, EventUpserted, events[0].Kind)
}
