package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/notify"
	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/pkg/logger"
)

func book(id int64, price float64) domain.Book {
	return domain.Book{ID: id, Title: "Book", Author: "Author", Price: price, Category: "Fiction"}
}

func mustOpen(t *testing.T, kv store.KV, n notify.Notifier) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), kv, n, logger.Discard())
	require.NoError(t, err)
	return l
}

func quantities(l *Ledger) map[int64]int {
	out := make(map[int64]int)
	for _, line := range l.Lines() {
		out[line.ID] = line.Quantity
	}
	return out
}

func TestLedger_AddMergesByBookID(t *testing.T) {
	ctx := context.Background()
	l := mustOpen(t, store.NewMemoryStore(), nil)

	require.NoError(t, l.Add(ctx, book(1, 200)))
	require.NoError(t, l.Add(ctx, book(1, 200)))
	require.NoError(t, l.Add(ctx, book(2, 150)))

	lines := l.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(2), lines[1].ID)
	assert.Equal(t, 1, lines[1].Quantity)

	assert.Equal(t, "550", l.Total().String())
	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 2, l.Len())
}

func TestLedger_RepeatedAddsNeverDuplicate(t *testing.T) {
	ctx := context.Background()
	l := mustOpen(t, store.NewMemoryStore(), nil)

	sequence := []int64{3, 1, 3, 2, 3, 1, 5, 3}
	want := make(map[int64]int)
	for _, id := range sequence {
		require.NoError(t, l.Add(ctx, book(id, 10)))
		want[id]++
	}

	assert.Equal(t, want, quantities(l))
	assert.Equal(t, 4, l.Len())

	// Insertion order is first-add order
	var order []int64
	for _, line := range l.Lines() {
		order = append(order, line.ID)
	}
	assert.Equal(t, []int64{3, 1, 2, 5}, order)
}

func TestLedger_TotalIsExact(t *testing.T) {
	ctx := context.Background()
	l := mustOpen(t, store.NewMemoryStore(), nil)

	require.NoError(t, l.Add(ctx, book(1, 0.1)))
	require.NoError(t, l.SetQuantity(ctx, 1, 3))
	require.NoError(t, l.Add(ctx, book(2, 0.2)))

	assert.Equal(t, "0.5", l.Total().String())

	require.NoError(t, l.Remove(ctx, 1))
	assert.Equal(t, "0.2", l.Total().String())
}

func TestLedger_SetQuantity(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		bookID   int64
		quantity int
		want     map[int64]int
	}{
		{"absolute set", 1, 7, map[int64]int{1: 7, 2: 1}},
		{"zero removes", 1, 0, map[int64]int{2: 1}},
		{"negative removes", 1, -1, map[int64]int{2: 1}},
		{"unknown book is a no-op", 9, 4, map[int64]int{1: 2, 2: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := mustOpen(t, store.NewMemoryStore(), nil)
			require.NoError(t, l.Add(ctx, book(1, 200)))
			require.NoError(t, l.Add(ctx, book(1, 200)))
			require.NoError(t, l.Add(ctx, book(2, 150)))

			require.NoError(t, l.SetQuantity(ctx, tt.bookID, tt.quantity))
			assert.Equal(t, tt.want, quantities(l))
		})
	}
}

func TestLedger_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := mustOpen(t, store.NewMemoryStore(), nil)
	require.NoError(t, l.Add(ctx, book(1, 200)))

	require.NoError(t, l.SetQuantity(ctx, 1, 0))
	require.NoError(t, l.SetQuantity(ctx, 1, 0))
	require.NoError(t, l.Remove(ctx, 1))

	assert.Zero(t, l.Len())
	assert.True(t, l.Total().IsZero())
}

func TestLedger_ClearErasesSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	l := mustOpen(t, kv, nil)
	require.NoError(t, l.Add(ctx, book(1, 200)))

	require.NoError(t, l.Clear(ctx))

	assert.True(t, l.Total().IsZero())
	assert.Zero(t, l.Count())
	_, err := kv.Get(ctx, SnapshotKey)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestLedger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	l := mustOpen(t, kv, nil)
	require.NoError(t, l.Add(ctx, book(5, 99.5)))
	require.NoError(t, l.Add(ctx, book(2, 150)))
	require.NoError(t, l.SetQuantity(ctx, 5, 4))

	reloaded := mustOpen(t, kv, nil)
	assert.Equal(t, l.Lines(), reloaded.Lines())
	assert.True(t, l.Total().Equal(reloaded.Total()))
}

func TestLedger_EveryMutationFlushes(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStore()
	l := mustOpen(t, kv, nil)

	require.NoError(t, l.Add(ctx, book(1, 10)))
	require.NoError(t, l.SetQuantity(ctx, 1, 3))
	require.NoError(t, l.Remove(ctx, 42))

	assert.Equal(t, 3, kv.setCount())
}

func TestLedger_FailedFlushLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStore()
	l := mustOpen(t, kv, nil)
	require.NoError(t, l.Add(ctx, book(1, 200)))
	before := l.Lines()

	kv.setFailWrites(true)

	assert.ErrorIs(t, l.Add(ctx, book(2, 150)), errStoreDown)
	assert.ErrorIs(t, l.Add(ctx, book(1, 200)), errStoreDown)
	assert.ErrorIs(t, l.SetQuantity(ctx, 1, 9), errStoreDown)
	assert.ErrorIs(t, l.Remove(ctx, 1), errStoreDown)
	assert.ErrorIs(t, l.Clear(ctx), errStoreDown)

	assert.Equal(t, before, l.Lines())
	assert.Equal(t, "200", l.Total().String())

	// The persisted snapshot still matches memory
	kv.setFailWrites(false)
	reloaded := mustOpen(t, kv, nil)
	assert.Equal(t, before, reloaded.Lines())
}

func TestOpen_ToleratesBadSnapshots(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{oops"},
		{"wrong shape", `{"id":1}`},
		{"duplicate ids", `[{"id":1,"price":10,"quantity":1},{"id":1,"price":10,"quantity":2}]`},
		{"zero quantity", `[{"id":1,"price":10,"quantity":0}]`},
		{"quantity over limit", `[{"id":1,"price":10,"quantity":100}]`},
		{"non-positive price", `[{"id":1,"price":0,"quantity":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := store.NewMemoryStore()
			require.NoError(t, kv.Set(ctx, SnapshotKey, tt.raw))

			l := mustOpen(t, kv, nil)
			assert.Zero(t, l.Len())
			assert.True(t, l.Total().IsZero())

			// Still usable afterwards
			require.NoError(t, l.Add(ctx, book(1, 10)))
			assert.Equal(t, 1, l.Count())
		})
	}
}

func TestLedger_Notifications(t *testing.T) {
	ctx := context.Background()
	inbox := notify.NewInbox(10)
	l := mustOpen(t, store.NewMemoryStore(), inbox.For("s"))

	require.NoError(t, l.Add(ctx, book(1, 10)))
	require.NoError(t, l.Add(ctx, book(1, 10)))
	require.NoError(t, l.SetQuantity(ctx, 1, 5))
	require.NoError(t, l.Remove(ctx, 1))

	var texts []string
	for _, m := range inbox.Drain("s") {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"Book added to cart!", "Quantity updated in cart!", "Book removed from cart"}, texts)
}

func TestOpen_ReadFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStore()
	require.NoError(t, kv.Set(ctx, SnapshotKey, `[{"id":1,"price":10,"quantity":2}]`))
	kv.failNextReads(1)

	l, err := Open(ctx, kv, nil, logger.Discard())
	assert.ErrorIs(t, err, errStoreDown)
	assert.Nil(t, l)

	// The snapshot was not touched
	l = mustOpen(t, kv, nil)
	assert.Equal(t, map[int64]int{1: 2}, quantities(l))
}

func TestLedger_QuantityLimit(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	l := mustOpen(t, kv, nil)
	require.NoError(t, l.Add(ctx, book(1, 10)))

	require.NoError(t, l.SetQuantity(ctx, 1, MaxQuantity))
	assert.ErrorIs(t, l.Add(ctx, book(1, 10)), ErrQuantityLimit)
	assert.ErrorIs(t, l.SetQuantity(ctx, 1, MaxQuantity+1), ErrQuantityLimit)
	assert.Equal(t, map[int64]int{1: MaxQuantity}, quantities(l))

	// The limit reached by adds can always be set back
	require.NoError(t, l.SetQuantity(ctx, 1, MaxQuantity))
	assert.Equal(t, MaxQuantity, mustOpen(t, kv, nil).Count())
}
