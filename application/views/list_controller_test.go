package views

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/internal/mocks"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

func TestListController_Filters(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	list := session.List

	require.NoError(t, list.Refresh(ctx))
	assert.Len(t, list.Visible(), 2)

	require.NoError(t, list.SelectCategory(ctx, "history"))
	visible := list.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Magna Carta", visible[0].Title)

	err := list.SelectCategory(ctx, "astrology")
	assert.True(t, apperrors.IsValidation(err))
	assert.NotEmpty(t, list.Message())
	assert.Equal(t, "history", session.Store.Category(), "rejected filter leaves the query alone")

	require.NoError(t, list.Apply(ctx, "all", "votesInteresting_desc"))
	visible = list.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "Octopus", visible[0].Title)
	assert.Empty(t, list.Message())

	assert.True(t, apperrors.IsValidation(list.SelectSortString(ctx, "title_sideways")))
	assert.True(t, apperrors.IsValidation(list.Apply(ctx, "", "nope")))

	list.Search("magna")
	require.Len(t, list.Visible(), 1)
	list.Search("")
	assert.Len(t, list.Visible(), 2)
}

func TestListController_SelectSort_RejectsUnknownDirection(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	session := newTestFactory(remote).New("s1")

	err := session.List.SelectSort(ctx, valueobjects.Sort{Field: valueobjects.SortByCreatedAt, Direction: "sideways"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, valueobjects.DefaultSort, session.Store.Sort())
	remote.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestListController_Apply_KeepsUnsetValues(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)

	require.NoError(t, session.List.Apply(ctx, "history", ""))
	assert.Equal(t, valueobjects.DefaultSort, session.Store.Sort())

	require.NoError(t, session.List.Apply(ctx, "", "created_at_desc"))
	assert.Equal(t, "history", session.Store.Category())
	assert.Equal(t, valueobjects.Desc, session.Store.Sort().Direction)
}

func TestListController_SubmitForm(t *testing.T) {
	ctx := context.Background()
	session, remote := seededSession(t)
	list := session.List
	require.NoError(t, list.Refresh(ctx))

	assert.True(t, list.ToggleForm())
	require.NoError(t, list.Form().Set("text", "Bananas are berries."))
	require.NoError(t, list.Form().Set("source", "not a url"))
	require.NoError(t, list.Form().Set("category", "science"))

	_, err := list.SubmitForm(ctx)
	assert.True(t, apperrors.IsValidation(err))
	assert.True(t, list.Form().IsOpen(), "form stays open with its values")
	assert.Equal(t, "Bananas are berries.", list.Form().Fields().Text)
	assert.Equal(t, 2, remote.Len(ports.TableFacts))

	require.NoError(t, list.Form().Set("source", "https://example.com/bananas"))
	fact, err := list.SubmitForm(ctx)
	require.NoError(t, err)
	assert.False(t, list.Form().IsOpen())
	assert.Empty(t, list.Form().Fields().Text)
	assert.Empty(t, list.Message())

	visible := list.Visible()
	require.Len(t, visible, 3)
	assert.Equal(t, fact.ID, visible[0].ID, "created fact is shown first")
	assert.Equal(t, 3, remote.Len(ports.TableFacts))
}

func TestListController_Vote(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	list := session.List
	require.NoError(t, list.Refresh(ctx))

	fact, err := list.Vote(ctx, "1", entities.VotesInteresting)
	require.NoError(t, err)
	assert.Equal(t, 6, fact.VotesInteresting)
	assert.False(t, list.VotePending("1"))

	_, err = list.Vote(ctx, "99", entities.VotesInteresting)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListController_FetchFailureShowsMessage(t *testing.T) {
	remote := new(mocks.MockRemoteStore)
	remote.On("Query", mock.Anything, ports.TableFacts, mock.Anything).Return(nil, errors.New("503"))
	session := newTestFactory(remote).New("s")

	err := session.List.Refresh(context.Background())
	assert.True(t, apperrors.IsFetch(err))
	assert.Equal(t, "failed to load data", session.List.Message())
	assert.False(t, session.List.Loading())
}

func TestListController_SupersededLeavesNoMessage(t *testing.T) {
	session := newTestFactory(new(mocks.MockRemoteStore)).New("s")
	err := session.List.settle(apperrors.ErrSuperseded)
	assert.ErrorIs(t, err, apperrors.ErrSuperseded)
	assert.Empty(t, session.List.Message())
}

func TestListController_Categories(t *testing.T) {
	session := newTestFactory(new(mocks.MockRemoteStore)).New("s")
	categories := session.List.Categories()
	require.NotEmpty(t, categories)
	assert.Equal(t, "technology", categories[0].Name)
}
