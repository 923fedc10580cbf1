package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/readify/storefront/internal/store"
)

var errStoreDown = errors.New("store down")

// flakyStore wraps a MemoryStore. It fails writes while failWrites is set
// and the next failReads reads.
type flakyStore struct {
	*store.MemoryStore
	mu         sync.RWMutex
	failWrites bool
	failReads  int
	sets       int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (f *flakyStore) setFailWrites(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = v
}

func (f *flakyStore) failNextReads(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = n
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	fail := f.failReads > 0
	if fail {
		f.failReads--
	}
	f.mu.Unlock()
	if fail {
		return "", errStoreDown
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	f.sets++
	fail := f.failWrites
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	f.mu.RLock()
	fail := f.failWrites
	f.mu.RUnlock()
	if fail {
		return errStoreDown
	}
	return f.MemoryStore.Delete(ctx, key)
}

func (f *flakyStore) setCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sets
}
