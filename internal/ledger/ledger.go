package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/notify"
	"github.com/readify/storefront/internal/store"
	"github.com/readify/storefront/pkg/logger"
)

// SnapshotKey is the store key holding the persisted cart.
const SnapshotKey = "readify_cart"

// MaxQuantity is the most copies of one book a cart line may hold.
const MaxQuantity = 99

// ErrQuantityLimit is returned when a line would exceed MaxQuantity.
var ErrQuantityLimit = fmt.Errorf("cart line quantity is limited to %d", MaxQuantity)

const (
	msgAdded   = "Book added to cart!"
	msgUpdated = "Quantity updated in cart!"
	msgRemoved = "Book removed from cart"
)

// Ledger is the ordered set of cart lines of one browser session.
// Every mutation writes the full snapshot to the store before it becomes
// visible in memory, so a failed write leaves the ledger unchanged.
type Ledger struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	kv       store.KV
	notifier notify.Notifier
	log      *slog.Logger
}

// Open loads the ledger persisted in kv. A missing or corrupt snapshot yields
// an empty ledger. A failed read is returned, since starting empty would let
// the next mutation overwrite a cart that is still in the store.
func Open(ctx context.Context, kv store.KV, notifier notify.Notifier, log *slog.Logger) (*Ledger, error) {
	if notifier == nil {
		notifier = notify.Discard
	}
	l := &Ledger{
		kv:       kv,
		notifier: notifier,
		log:      logger.OrDefault(log),
	}

	raw, err := kv.Get(ctx, SnapshotKey)
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	lines, err := decodeSnapshot(raw)
	if err != nil {
		l.log.ErrorContext(ctx, "cart snapshot discarded, starting empty", "error", err)
		return l, nil
	}
	l.lines = lines
	return l, nil
}

// Add puts one more copy of book in the cart, appending a new line if the
// book is not there yet.
func (l *Ledger) Add(ctx context.Context, book domain.Book) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := slices.Clone(l.lines)
	msg := msgAdded
	if i := indexOf(next, book.ID); i >= 0 {
		if next[i].Quantity >= MaxQuantity {
			return ErrQuantityLimit
		}
		next[i].Quantity++
		msg = msgUpdated
	} else {
		next = append(next, domain.CartLine{Book: book, Quantity: 1})
	}

	if err := l.commit(ctx, next); err != nil {
		return err
	}
	l.notifier.Notify(ctx, notify.Success(msg))
	return nil
}

// Remove drops the line for bookID. Removing an absent book is not an error.
func (l *Ledger) Remove(ctx context.Context, bookID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remove(ctx, bookID)
}

// SetQuantity sets the absolute quantity of an existing line. A quantity
// below 1 removes the line; unknown books are left alone.
func (l *Ledger) SetQuantity(ctx context.Context, bookID int64, quantity int) error {
	if quantity > MaxQuantity {
		return ErrQuantityLimit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity < 1 {
		return l.remove(ctx, bookID)
	}

	next := slices.Clone(l.lines)
	if i := indexOf(next, bookID); i >= 0 {
		next[i].Quantity = quantity
	}
	return l.commit(ctx, next)
}

// Clear empties the ledger and erases the persisted snapshot.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kv.Delete(ctx, SnapshotKey); err != nil {
		return fmt.Errorf("failed to erase cart: %w", err)
	}
	l.lines = nil
	return nil
}

// Total returns Σ price×quantity, 0 for an empty ledger.
func (l *Ledger) Total() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.SumLines(l.lines)
}

// Count returns the number of copies across all lines.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []domain.CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.lines)
}

// Len returns the number of distinct books.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines)
}

func (l *Ledger) remove(ctx context.Context, bookID int64) error {
	next := slices.DeleteFunc(slices.Clone(l.lines), func(line domain.CartLine) bool {
		return line.ID == bookID
	})
	if err := l.commit(ctx, next); err != nil {
		return err
	}
	l.notifier.Notify(ctx, notify.Success(msgRemoved))
	return nil
}

// commit flushes next and, once stored, makes it the current line set.
func (l *Ledger) commit(ctx context.Context, next []domain.CartLine) error {
	raw, err := encodeSnapshot(next)
	if err != nil {
		return err
	}
	if err := l.kv.Set(ctx, SnapshotKey, raw); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	l.lines = next
	return nil
}

func indexOf(lines []domain.CartLine, bookID int64) int {
	return slices.IndexFunc(lines, func(line domain.CartLine) bool {
		return line.ID == bookID
	})
}
