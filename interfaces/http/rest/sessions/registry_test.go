package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/views"
	"github.com/zhangshi0512/FactsHub/domain/core/valueobjects"
	"github.com/zhangshi0512/FactsHub/infrastructure/persistence/memory"
	"github.com/zhangshi0512/FactsHub/pkg/validation"
)

func newTestRegistry(ttl time.Duration) (*Registry, *time.Time) {
	categories := valueobjects.NewCategoryTable(nil)
	factory := &views.SessionFactory{
		Remote:     memory.NewStore(),
		Categories: categories,
		Validator:  validation.New(categories),
		Logger:     zap.NewNop(),
	}
	r := NewRegistry(factory, zap.NewNop(), ttl)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	r, _ := newTestRegistry(time.Minute)

	a := r.Create()
	b := r.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotSame(t, a.Store, b.Store, "each session owns its collection")
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, r.Delete(a.ID))
	assert.False(t, r.Delete(a.ID))
	_, ok = r.Get(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Expiry(t *testing.T) {
	r, now := newTestRegistry(time.Minute)

	idle := r.Create()
	active := r.Create()

	*now = now.Add(45 * time.Second)
	_, ok := r.Get(active.ID)
	require.True(t, ok)

	*now = now.Add(30 * time.Second)
	assert.Equal(t, 1, r.CleanupExpired())
	_, ok = r.Get(idle.ID)
	assert.False(t, ok)
	_, ok = r.Get(active.ID)
	assert.True(t, ok)

	*now = now.Add(2 * time.Minute)
	_, ok = r.Get(active.ID)
	assert.False(t, ok, "expired on lookup")
	assert.Equal(t, 0, r.Len())
}

func TestNewRegistry_DefaultTTL(t *testing.T) {
	r, _ := newTestRegistry(0)
	assert.Equal(t, DefaultTTL, r.ttl)
}
