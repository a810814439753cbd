package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/commands"
	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/state"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/memory"
	"github.com/zhangshi0512/FactsHub/internal/fixtures"
	"github.com/zhangshi0512/FactsHub/internal/mocks"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

func testValidator() *validation.Validator {
	return validation.New(valueobjects.NewCategoryTable(nil))
}

func validFields() commands.FactFields {
	return commands.FactFields{
		Title:    "  Honey  ",
		Text:     "Honey never spoils.",
		Source:   "https://example.com/honey",
		Category: "science",
	}
}

func TestFactService_SubmitCreate_ValidationMakesNoRemoteCall(t *testing.T) {
	remote := new(mocks.MockRemoteStore)
	store := state.NewCollectionStore(remote, zap.NewNop())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	tests := []struct {
		name   string
		mutate func(*commands.FactFields)
	}{
		{"empty text", func(f *commands.FactFields) { f.Text = "" }},
		{"bad source", func(f *commands.FactFields) { f.Source = "not a url" }},
		{"unknown category", func(f *commands.FactFields) { f.Category = "astrology" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(&fields)
			_, err := svc.SubmitCreate(context.Background(), fields)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	remote.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, store.Facts())
}

func TestFactService_SubmitCreate_PrependsStoredRow(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewStore()
	store := state.NewCollectionStore(remote, zap.NewNop())
	store.UpsertLocal(fixtures.NewFactBuilder().WithID("100").Build())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	fact, err := svc.SubmitCreate(ctx, validFields())
	require.NoError(t, err)
	assert.False(t, fact.ID.IsZero())
	assert.Equal(t, "Honey", fact.Title, "title is trimmed")
	assert.Equal(t, 0, fact.VotesInteresting)
	assert.False(t, fact.CreatedAt.IsZero())

	facts := store.Facts()
	require.Len(t, facts, 2)
	assert.Equal(t, fact.ID, facts[0].ID)
}

func TestFactService_SubmitCreate_InsertFailure(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	store := state.NewCollectionStore(remote, zap.NewNop())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	remote.On("Insert", ctx, ports.TableFacts, mock.Anything).Return(nil, errors.New("permission denied"))

	_, err := svc.SubmitCreate(ctx, validFields())
	assert.True(t, apperrors.IsMutation(err))
	assert.Empty(t, store.Facts())
}

func TestFactService_SubmitEdit(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewStore()
	store := state.NewCollectionStore(remote, zap.NewNop())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	created, err := svc.SubmitCreate(ctx, validFields())
	require.NoError(t, err)

	fields := commands.FieldsFromFact(created)
	fields.Text = "Honey found in tombs is still edible."
	updated, err := svc.SubmitEdit(ctx, created.ID, fields)
	require.NoError(t, err)
	assert.Equal(t, "Honey found in tombs is still edible.", updated.Text)

	cached, ok := store.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, updated.Text, cached.Text)

	_, err = svc.SubmitEdit(ctx, "999", fields)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFactService_DeleteFact_RemovesCommentsThenFact(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewStore()
	store := state.NewCollectionStore(remote, zap.NewNop())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	_, err := remote.Insert(ctx, ports.TableFacts, []ports.Row{
		fixtures.NewFactBuilder().WithID("3").Row(),
		fixtures.NewFactBuilder().WithID("4").Row(),
	})
	require.NoError(t, err)
	_, err = remote.Insert(ctx, ports.TableComments, []ports.Row{
		fixtures.NewCommentBuilder().ForFact("3").Row(),
		fixtures.NewCommentBuilder().ForFact("3").WithContent("Wow").Row(),
		fixtures.NewCommentBuilder().ForFact("4").Row(),
	})
	require.NoError(t, err)
	require.NoError(t, store.Refetch(ctx))

	require.NoError(t, svc.DeleteFact(ctx, "3"))

	_, ok := store.Get("3")
	assert.False(t, ok)
	_, ok = store.Get("4")
	assert.True(t, ok)
	assert.Equal(t, 1, remote.Len(ports.TableFacts))
	assert.Equal(t, 1, remote.Len(ports.TableComments), "only the comments of fact 4 remain")
}

func TestFactService_DeleteFact_Order(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	store := state.NewCollectionStore(remote, zap.NewNop())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	mock.InOrder(
		remote.On("Delete", ctx, ports.TableComments, ports.Eq(ports.ColumnFactID, "3")).Return(nil).Once(),
		remote.On("Delete", ctx, ports.TableFacts, ports.Eq(ports.ColumnID, "3")).Return(nil).Once(),
	)

	require.NoError(t, svc.DeleteFact(ctx, "3"))
	remote.AssertExpectations(t)
}

func TestFactService_DeleteFact_AbortsWhenCommentsFail(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	store := state.NewCollectionStore(remote, zap.NewNop())
	store.UpsertLocal(fixtures.NewFactBuilder().WithID("3").Build())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	remote.On("Delete", ctx, ports.TableComments, mock.Anything).Return(errors.New("timeout"))

	err := svc.DeleteFact(ctx, "3")
	assert.True(t, apperrors.IsMutation(err))
	remote.AssertNotCalled(t, "Delete", ctx, ports.TableFacts, mock.Anything)
	_, ok := store.Get("3")
	assert.True(t, ok, "fact stays in the collection")
}

func TestFactService_DeleteFact_FactDeleteFailsAfterComments(t *testing.T) {
	ctx := context.Background()
	remote := new(mocks.MockRemoteStore)
	store := state.NewCollectionStore(remote, zap.NewNop())
	store.UpsertLocal(fixtures.NewFactBuilder().WithID("3").Build())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	remote.On("Delete", ctx, ports.TableComments, mock.Anything).Return(nil)
	remote.On("Delete", ctx, ports.TableFacts, mock.Anything).Return(errors.New("timeout"))

	err := svc.DeleteFact(ctx, "3")
	assert.True(t, apperrors.IsMutation(err))
	_, ok := store.Get("3")
	assert.True(t, ok)
}

func TestFactService_FetchFact(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewStore()
	store := state.NewCollectionStore(remote, zap.NewNop())
	svc := NewFactService(remote, store, testValidator(), zap.NewNop(), nil)

	_, err := remote.Insert(ctx, ports.TableFacts, []ports.Row{
		fixtures.NewFactBuilder().WithID("8").WithTitle("Eight").Row(),
	})
	require.NoError(t, err)

	fact, err := svc.FetchFact(ctx, "8")
	require.NoError(t, err)
	assert.Equal(t, "Eight", fact.Title)

	_, err = svc.FetchFact(ctx, "9")
	assert.True(t, apperrors.IsNotFound(err))
}
