package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/memory"
	"github.com/zhangshi0512/FactsHub/internal/fixtures"
	apperrors "github.com/zhangshi0512/FactsHub/pkg/errors"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

func newTestShell(t *testing.T) (*shell, *bytes.Buffer, *memory.Store) {
	t.Helper()
	remote := memory.NewStore()
	_, err := remote.Insert(context.Background(), ports.TableFacts, []ports.Row{
		fixtures.NewFactBuilder().WithID("1").WithTitle("Octopus").WithSecret("abc").WithVotes(5, 2, 9).Row(),
		fixtures.NewFactBuilder().WithID("2").WithTitle("Magna Carta").WithCategory("history").Row(),
	})
	require.NoError(t, err)

	categories := valueobjects.NewCategoryTable(nil)
	factory := &views.SessionFactory{
		Remote:     remote,
		Categories: categories,
		Validator:  validation.New(categories),
		Logger:     zap.NewNop(),
	}
	out := &bytes.Buffer{}
	return newShell(factory.New("cli"), categories, out), out, remote
}

func TestShell_ListAndFilter(t *testing.T) {
	ctx := context.Background()
	sh, out, _ := newTestShell(t)

	require.NoError(t, sh.Exec(ctx, "list"))
	assert.Contains(t, out.String(), "Octopus")
	assert.Contains(t, out.String(), "[DISPUTED]")
	assert.Contains(t, out.String(), "Magna Carta")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "category history"))
	assert.NotContains(t, out.String(), "Octopus")
	assert.Contains(t, out.String(), "category=history")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "category all"))
	require.NoError(t, sh.Exec(ctx, "search magna"))
	assert.Contains(t, out.String(), `search="magna"`)

	assert.True(t, apperrors.IsValidation(sh.Exec(ctx, "category astrology")))
	assert.True(t, apperrors.IsValidation(sh.Exec(ctx, "sort upside_down")))
	assert.True(t, apperrors.IsValidation(sh.Exec(ctx, "frobnicate")))
}

func TestShell_CreateFact(t *testing.T) {
	ctx := context.Background()
	sh, out, remote := newTestShell(t)

	require.NoError(t, sh.Exec(ctx, "new"))
	require.NoError(t, sh.Exec(ctx, "set text Bananas are berries."))
	require.NoError(t, sh.Exec(ctx, "set source https://example.com/bananas"))
	require.NoError(t, sh.Exec(ctx, "set category science"))
	require.NoError(t, sh.Exec(ctx, "form"))
	assert.Contains(t, out.String(), "Bananas are berries.")

	require.NoError(t, sh.Exec(ctx, "submit"))
	assert.Contains(t, out.String(), "created")
	assert.Equal(t, 3, remote.Len(ports.TableFacts))
}

func TestShell_DetailFlow(t *testing.T) {
	ctx := context.Background()
	sh, out, remote := newTestShell(t)

	require.NoError(t, sh.Exec(ctx, "open 1"))
	assert.Contains(t, out.String(), "Octopus")
	assert.Contains(t, out.String(), "(no comments)")

	out.Reset()
	require.NoError(t, sh.Exec(ctx, "vote interesting"))
	assert.Contains(t, out.String(), "interesting 6")

	require.NoError(t, sh.Exec(ctx, "comment Amazing"))
	assert.Contains(t, out.String(), "Amazing")

	require.NoError(t, sh.Exec(ctx, "edit"))
	err := sh.Exec(ctx, "key wrong")
	assert.True(t, apperrors.IsAuthorization(err))

	require.NoError(t, sh.Exec(ctx, "edit"))
	require.NoError(t, sh.Exec(ctx, "key abc"))
	require.NoError(t, sh.Exec(ctx, "set text Octopuses have three hearts."))
	require.NoError(t, sh.Exec(ctx, "submit"))
	assert.Contains(t, out.String(), "saved")

	require.NoError(t, sh.Exec(ctx, "delete"))
	require.NoError(t, sh.Exec(ctx, "key abc"))
	assert.Contains(t, out.String(), "fact deleted")
	assert.Equal(t, 1, remote.Len(ports.TableFacts))
	assert.Equal(t, 0, remote.Len(ports.TableComments))

	assert.True(t, apperrors.IsNotFound(sh.Exec(ctx, "open 1")))
}

func TestShell_Run(t *testing.T) {
	sh, out, _ := newTestShell(t)

	in := strings.NewReader("help\nopen\nquit\nlist\n")
	require.NoError(t, sh.Run(context.Background(), in))

	text := out.String()
	assert.Contains(t, text, "commands:")
	assert.Contains(t, text, "error: usage: open <id>")
	assert.NotContains(t, text, "Octopus", "nothing runs after quit")
}
