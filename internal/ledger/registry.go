package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/readify/storefront/internal/notify"
	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/pkg/logger"
)

// NotifierFunc picks the notifier for a browser session.
type NotifierFunc func(sessionID string) notify.Notifier

type entry struct {
	ledger   *Ledger
	lastUsed time.Time
}

// Registry hands out one ledger per browser session, each persisted in its
// own namespace of a shared store. Ledgers stay in memory until swept.
type Registry struct {
	kv        store.KV
	notifiers NotifierFunc
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	ledgers map[string]*entry
	sfg     singleflight.Group // collapses concurrent first loads of a session
}

func NewRegistry(kv store.KV, notifiers NotifierFunc, log *slog.Logger) *Registry {
	if notifiers == nil {
		notifiers = func(string) notify.Notifier { return notify.Discard }
	}
	return &Registry{
		kv:        kv,
		notifiers: notifiers,
		log:       logger.OrDefault(log),
		now:       time.Now,
		ledgers:   make(map[string]*entry),
	}
}

// Get returns the ledger of sessionID, loading it from the store on first
// use. A failed load is returned and not remembered, so the next call
// retries the store.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Ledger, error) {
	if l, ok := r.lookup(sessionID); ok {
		return l, nil
	}

	v, err, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		if l, ok := r.lookup(sessionID); ok {
			return l, nil
		}

		l, err := Open(ctx, store.NewScoped(r.kv, sessionID), r.notifiers(sessionID),
			r.log.With("session_id", sessionID))
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.ledgers[sessionID] = &entry{ledger: l, lastUsed: r.now()}
		r.mu.Unlock()
		return l, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Ledger), nil
}

func (r *Registry) lookup(sessionID string) (*Ledger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.ledgers[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.ledger, true
}

// Evict forgets the in-memory ledger of a session. The persisted snapshot
// stays and is reloaded by the next Get.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ledgers, sessionID)
}

// Sweep evicts every ledger not used for idle and returns how many went.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.ledgers {
		if e.lastUsed.Before(cutoff) {
			delete(r.ledgers, id)
			n++
		}
	}
	return n
}

// Len returns the number of ledgers held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ledgers)
}

// SessionCart is a session's ledger for holders that outlive a request,
// such as an open checkout. Lines reads the ledger it was taken from; Clear
// goes back through the registry so it reaches the live ledger even after a
// sweep reloaded it.
type SessionCart struct {
	*Ledger
	reg       *Registry
	sessionID string
}

// Cart returns the ledger of sessionID wrapped as a SessionCart.
func (r *Registry) Cart(ctx context.Context, sessionID string) (*SessionCart, error) {
	l, err := r.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionCart{Ledger: l, reg: r, sessionID: sessionID}, nil
}

func (c *SessionCart) Clear(ctx context.Context) error {
	l, err := c.reg.Get(ctx, c.sessionID)
	if err != nil {
		return err
	}
	return l.Clear(ctx)
}
