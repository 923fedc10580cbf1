package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/readify/storefront/pkg/logger"
)

// Target holds per-session state in memory and can drop what went idle.
type Target interface {
	Sweep(idle time.Duration) int
}

// Sweeper periodically evicts idle browser sessions from every target.
type Sweeper struct {
	tick    time.Duration
	idle    time.Duration
	targets map[string]Target
	log     *slog.Logger
}

func New(tick, idle time.Duration, log *slog.Logger) *Sweeper {
	return &Sweeper{
		tick:    tick,
		idle:    idle,
		targets: make(map[string]Target),
		log:     logger.OrDefault(log),
	}
}

// Add registers a target under name. Call before Run.
func (s *Sweeper) Add(name string, t Target) {
	s.targets[name] = t
}

// Run sweeps every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SweepOnce runs one pass over all targets.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	for name, t := range s.targets {
		if n := t.Sweep(s.idle); n > 0 {
			s.log.DebugContext(ctx, "evicted idle sessions", "target", name, "count", n)
		}
	}
}
