package admin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/pkg/logger"
)

type entry struct {
	gate     *Gate
	lastUsed time.Time
}

// Registry keeps one gate per browser session.
type Registry struct {
	kv   store.KV
	auth Authenticator
	log  *slog.Logger
	now  func() time.Time

	mu    sync.Mutex
	gates map[string]*entry
}

func NewRegistry(kv store.KV, auth Authenticator, log *slog.Logger) *Registry {
	return &Registry{
		kv:    kv,
		auth:  auth,
		log:   logger.OrDefault(log),
		now:   time.Now,
		gates: make(map[string]*entry),
	}
}

// Get returns the gate of sessionID, restoring its persisted flag on first
// use. A gate that cannot be restored is handed out closed and not kept, so
// the next call reads the store again.
func (r *Registry) Get(ctx context.Context, sessionID string) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.gates[sessionID]; ok {
		e.lastUsed = r.now()
		return e.gate
	}

	log := r.log.With("session_id", sessionID)
	g := NewGate(store.NewScoped(r.kv, sessionID), r.auth, log)
	if err := g.Open(ctx); err != nil {
		log.WarnContext(ctx, "admin gate restored closed", "error", err)
		return g
	}
	r.gates[sessionID] = &entry{gate: g, lastUsed: r.now()}
	return g
}

// Sweep forgets gates not used for idle. Their flags stay in the store.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.gates {
		if e.lastUsed.Before(cutoff) {
			delete(r.gates, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.gates)
}
