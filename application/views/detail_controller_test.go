package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/domain/core/entities"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
)

func TestDetailController_Open(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	detail := session.Detail

	require.NoError(t, detail.Open(ctx, "1"))
	fact, ok := detail.Fact()
	require.True(t, ok)
	assert.Equal(t, "Octopus", fact.Title)
	assert.Equal(t, valueobjects.ID("1"), detail.FocusedID())
	assert.Len(t, detail.Comments(), 2)
	st, _ := detail.GateState()
	assert.Equal(t, Viewing, st)

	detail.Close()
	assert.Equal(t, valueobjects.ID(""), detail.FocusedID())
	assert.Empty(t, detail.Comments())
}

func TestDetailController_Open_NotFound(t *testing.T) {
	session, _ := seededSession(t)
	detail := session.Detail

	err := detail.Open(context.Background(), "404")
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, detail.Unavailable())
	assert.True(t, detail.ShouldNavigateToList())
	_, ok := detail.Fact()
	assert.False(t, ok)

	assert.True(t, apperrors.IsNotFound(detail.RequestEdit()))
}

func TestDetailController_VoteVisibleInListAndDetail(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	require.NoError(t, session.List.Refresh(ctx))
	require.NoError(t, session.Detail.Open(ctx, "1"))

	_, err := session.Detail.Vote(ctx, entities.VotesInteresting)
	require.NoError(t, err)

	fact, _ := session.Detail.Fact()
	assert.Equal(t, 6, fact.VotesInteresting)
	cached, ok := session.Store.Get("1")
	require.True(t, ok)
	assert.Equal(t, 6, cached.VotesInteresting)
	assert.False(t, session.Detail.VotePending())
}

func TestDetailController_VoteOnDirectOpenLeavesListAlone(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	require.NoError(t, session.List.SelectCategory(ctx, "history"))
	require.NoError(t, session.Detail.Open(ctx, "1"))

	_, err := session.Detail.Vote(ctx, entities.VotesInteresting)
	require.NoError(t, err)

	fact, _ := session.Detail.Fact()
	assert.Equal(t, 6, fact.VotesInteresting)
	_, cached := session.Store.Get("1")
	assert.False(t, cached, "a science fact stays out of the history list")
	require.Len(t, session.Store.Facts(), 1)
	assert.Equal(t, "Magna Carta", session.Store.Facts()[0].Title)
}

func TestDetailController_ListVoteReachesDetail(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	require.NoError(t, session.List.Refresh(ctx))
	require.NoError(t, session.Detail.Open(ctx, "1"))

	_, err := session.List.Vote(ctx, "1", entities.VotesFalse)
	require.NoError(t, err)

	fact, _ := session.Detail.Fact()
	assert.Equal(t, 2, fact.VotesFalse)
}

func TestDetailController_WrongSecret(t *testing.T) {
	ctx := context.Background()
	session, remote := seededSession(t)
	detail := session.Detail
	require.NoError(t, detail.Open(ctx, "1"))

	require.NoError(t, detail.RequestDelete())
	err := detail.VerifySecret(ctx, "abcd")
	assert.True(t, apperrors.IsAuthorization(err))
	assert.Equal(t, "incorrect secret key", detail.Message())

	st, action := detail.GateState()
	assert.Equal(t, Viewing, st)
	assert.Equal(t, ActionNone, action)
	assert.Equal(t, 2, remote.Len(ports.TableFacts))
	assert.Equal(t, 2, remote.Len(ports.TableComments))
}

func TestDetailController_Edit(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	require.NoError(t, session.List.Refresh(ctx))
	detail := session.Detail
	require.NoError(t, detail.Open(ctx, "1"))

	_, err := detail.SubmitEdit(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, detail.RequestEdit())
	require.NoError(t, detail.VerifySecret(ctx, " abc "))
	st, _ := detail.GateState()
	require.Equal(t, Editing, st)
	assert.True(t, detail.Form().IsOpen())
	assert.Equal(t, "Octopus", detail.Form().Fields().Title, "form pre-filled from the fact")
	assert.Equal(t, "abc", detail.Form().Fields().SecretKey)

	require.NoError(t, detail.Form().Set("text", ""))
	_, err = detail.SubmitEdit(ctx)
	assert.True(t, apperrors.IsValidation(err))
	st, _ = detail.GateState()
	assert.Equal(t, Editing, st, "stays in editing after a failed save")

	require.NoError(t, detail.Form().Set("text", "Octopuses have three hearts."))
	updated, err := detail.SubmitEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Octopuses have three hearts.", updated.Text)

	st, _ = detail.GateState()
	assert.Equal(t, Viewing, st)
	assert.False(t, detail.Form().IsOpen())
	cached, _ := session.Store.Get("1")
	assert.Equal(t, updated.Text, cached.Text)
}

func TestDetailController_CancelEdit(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	detail := session.Detail
	require.NoError(t, detail.Open(ctx, "1"))

	require.NoError(t, detail.RequestEdit())
	require.NoError(t, detail.VerifySecret(ctx, "abc"))
	require.NoError(t, detail.CancelPrompt())

	st, _ := detail.GateState()
	assert.Equal(t, Viewing, st)
	assert.False(t, detail.Form().IsOpen())
}

func TestDetailController_Delete(t *testing.T) {
	ctx := context.Background()
	session, remote := seededSession(t)
	require.NoError(t, session.List.Refresh(ctx))
	detail := session.Detail
	require.NoError(t, detail.Open(ctx, "1"))

	require.NoError(t, detail.RequestDelete())
	require.NoError(t, detail.VerifySecret(ctx, "abc"))

	st, _ := detail.GateState()
	assert.Equal(t, Deleted, st)
	assert.True(t, detail.ShouldNavigateToList())
	_, ok := session.Store.Get("1")
	assert.False(t, ok)
	assert.Equal(t, 1, remote.Len(ports.TableFacts))
	assert.Equal(t, 0, remote.Len(ports.TableComments))
}

func TestDetailController_RemovedElsewhere(t *testing.T) {
	ctx := context.Background()
	session, _ := seededSession(t)
	require.NoError(t, session.Detail.Open(ctx, "2"))

	session.Store.RemoveLocal("2")
	assert.True(t, session.Detail.Unavailable())
	assert.True(t, session.Detail.ShouldNavigateToList())
}

func TestDetailController_SubmitComment(t *testing.T) {
	ctx := context.Background()
	session, remote := seededSession(t)
	detail := session.Detail

	_, err := detail.SubmitComment(ctx, "hello")
	assert.True(t, apperrors.IsNotFound(err), "no fact focused")

	require.NoError(t, detail.Open(ctx, "1"))
	entry, err := detail.SubmitComment(ctx, "Amazing")
	require.NoError(t, err)
	assert.False(t, entry.Pending())

	comments := detail.Comments()
	require.Len(t, comments, 3)
	assert.Equal(t, "Amazing", comments[2].Content)
	assert.Equal(t, 3, remote.Len(ports.TableComments))
}
