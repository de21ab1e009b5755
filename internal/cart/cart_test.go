package cart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gearup/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	MemoryStorage
	writeErr error
}

func (f *failingStorage) Write(ctx context.Context, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemoryStorage.Write(ctx, data)
}

func product(id, price string) models.CartItem {
	return models.CartItem{
		ID:     id,
		Name:   "Item " + id,
		Price:  decimal.RequireFromString(price),
		Size:   models.NoSize,
		Images: []string{id + ".jpg"},
	}
}

func assertTotalInvariant(t *testing.T, s *Store) {
	t.Helper()
	want := decimal.Zero
	for _, item := range s.Items() {
		require.GreaterOrEqual(t, item.Quantity, 1)
		want = want.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	assert.True(t, want.Equal(s.Total()), "total %s != %s", s.Total(), want)
}

func TestAddMergesByID(t *testing.T) {
	ctx := context.Background()
	s := New(&MemoryStorage{})

	require.NoError(t, s.Add(ctx, product("p1", "49.99"), 1))
	require.NoError(t, s.Add(ctx, product("p2", "10.00"), 3))
	require.NoError(t, s.Add(ctx, product("p1", "49.99"), 2))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 6, s.Count())
	assert.Equal(t, "179.97", s.Total().StringFixed(2))
	assertTotalInvariant(t, s)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	s := New(&MemoryStorage{})
	err := s.Add(context.Background(), product("p1", "1"), 0)
	assert.True(t, models.IsValidation(err))
	assert.True(t, s.IsEmpty())
}

func TestUpdateQuantityFloorRemoves(t *testing.T) {
	ctx := context.Background()
	s := New(&MemoryStorage{})
	require.NoError(t, s.Add(ctx, product("p1", "5"), 2))
	require.NoError(t, s.Add(ctx, product("p2", "7"), 1))

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 4))
	assert.Equal(t, "27", s.Total().String())

	require.NoError(t, s.UpdateQuantity(ctx, "p1", 0))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "p2", s.Items()[0].ID)

	require.NoError(t, s.UpdateQuantity(ctx, "p2", -3))
	assert.True(t, s.IsEmpty())
	assert.True(t, s.Total().IsZero())
}

func TestUpdateAndRemoveUnknownItem(t *testing.T) {
	ctx := context.Background()
	s := New(&MemoryStorage{})
	assert.ErrorIs(t, s.UpdateQuantity(ctx, "nope", 2), ErrItemNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "nope"), ErrItemNotFound)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := &MemoryStorage{}
	s := New(storage)
	orig := decimal.RequireFromString("59.99")
	item := product("p1", "49.99")
	item.OriginalPrice = &orig
	item.Size = "42"
	item.Variant = 2
	require.NoError(t, s.Add(ctx, item, 2))
	require.NoError(t, s.Add(ctx, product("p2", "3.25"), 1))

	first, err := storage.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))
	second, err := storage.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	reloaded := New(storage)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, s.Items(), reloaded.Items())
	assert.True(t, s.Total().Equal(reloaded.Total()))
}

func TestLoadMissingStorage(t *testing.T) {
	s := New(&MemoryStorage{})
	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.IsEmpty())
}

func TestLoadMissingCartFile(t *testing.T) {
	ctx := context.Background()
	s := New(NewFileStorage(filepath.Join(t.TempDir(), "cart.json")))

	var loaded []Event
	s.Subscribe(func(e Event) { loaded = append(loaded, e) })

	require.NoError(t, s.Load(ctx))
	assert.True(t, s.IsEmpty())
	require.Len(t, loaded, 1)
	assert.Equal(t, EventLoaded, loaded[0].Type)
	assert.NoError(t, loaded[0].Err)

	require.NoError(t, s.Add(ctx, product("p1", "1"), 1))
	assert.Equal(t, 1, s.Count())
}

func TestLoadCorruptStorage(t *testing.T) {
	ctx := context.Background()
	storage := &MemoryStorage{}
	require.NoError(t, storage.Write(ctx, []byte("{not json")))

	s := New(storage)
	err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrCorruptStorage)
	assert.True(t, s.IsEmpty())

	require.NoError(t, s.Add(ctx, product("p1", "1"), 1))
	assert.Equal(t, 1, s.Count())
}

func TestLoadDropsInvalidQuantities(t *testing.T) {
	ctx := context.Background()
	storage := &MemoryStorage{}
	require.NoError(t, storage.Write(ctx, []byte(`[{"id":"p1","price":2,"quantity":0},{"id":"p2","price":3,"quantity":2}]`)))

	s := New(storage)
	require.NoError(t, s.Load(ctx))
	require.Len(t, s.Items(), 1)
	assert.Equal(t, "6", s.Total().String())
}

func TestEventsFireAfterStateAndStorage(t *testing.T) {
	ctx := context.Background()
	storage := &MemoryStorage{}
	s := New(storage)

	var events []Event
	unsubscribe := s.Subscribe(func(e Event) {
		stored, err := storage.Read(ctx)
		if e.Type != EventCleared {
			require.NoError(t, err)
			assert.Contains(t, string(stored), `"quantity"`)
		}
		assert.True(t, e.Total.Equal(s.Total()))
		events = append(events, e)
	})

	require.NoError(t, s.Add(ctx, product("p1", "2"), 1))
	require.NoError(t, s.Add(ctx, product("p1", "2"), 1))
	require.NoError(t, s.UpdateQuantity(ctx, "p1", 5))
	require.NoError(t, s.Clear(ctx))

	require.Len(t, events, 4)
	assert.Equal(t, EventAdded, events[0].Type)
	assert.Equal(t, EventQuantityUpdated, events[1].Type)
	assert.Equal(t, "10", events[2].Total.String())
	assert.Equal(t, EventCleared, events[3].Type)

	_, err := storage.Read(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	unsubscribe()
	require.NoError(t, s.Add(ctx, product("p2", "1"), 1))
	assert.Len(t, events, 4)
}

func TestPersistenceFailureIsReported(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	s := New(&failingStorage{writeErr: boom})

	var got Event
	s.Subscribe(func(e Event) { got = e })

	err := s.Add(ctx, product("p1", "2"), 1)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, got.Err, boom)
	assert.Equal(t, 1, s.Count())
}

func TestFileStorage(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cart.json")
	fs := NewFileStorage(path)

	_, err := fs.Read(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	s := New(fs)
	require.NoError(t, s.Add(ctx, product("p1", "49.99"), 2))

	reloaded := New(fs)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, "99.98", reloaded.Total().StringFixed(2))

	require.NoError(t, reloaded.Clear(ctx))
	_, err = fs.Read(ctx)
	assert.ErrorIs(t, err, ErrNoData)
	require.NoError(t, fs.Delete(ctx))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "quantity_updated", EventQuantityUpdated.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
