package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/readify/storefront/internal/catalog"
	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/pkg/logger"
)

// BookFinder resolves the book of a buy-now checkout.
type BookFinder interface {
	FindBookByID(ctx context.Context, id int64) (domain.Book, error)
}

// OrderBackend receives settled orders. Calls happen in the background and
// their result never reaches the customer.
type OrderBackend interface {
	SubmitOrder(ctx context.Context, order domain.SettledOrder) error
}

type Config struct {
	Payee domain.Payee
	// SettleDelay is a cosmetic pause between CONFIRMING and SETTLED.
	SettleDelay time.Duration
	// DispatchTimeout bounds each OrderBackend call.
	DispatchTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Payee:           domain.Payee{Handle: "readify@upi", Name: "Readify Books"},
		DispatchTimeout: 10 * time.Second,
	}
}

// Manager owns the open checkout sessions of the process.
type Manager struct {
	books    BookFinder
	backends []OrderBackend
	cfg      Config
	log      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	owners   map[string]string // browser session -> checkout id

	dispatches sync.WaitGroup
	newOrderID func() string
	now        func() time.Time
}

func NewManager(books BookFinder, cfg Config, log *slog.Logger, backends ...OrderBackend) *Manager {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = DefaultConfig().DispatchTimeout
	}
	return &Manager{
		books:      books,
		backends:   backends,
		cfg:        cfg,
		log:        logger.OrDefault(log),
		sessions:   make(map[string]*Session),
		owners:     make(map[string]string),
		newOrderID: func() string { return "RDF-" + uuid.NewString() },
		now:        time.Now,
	}
}

// Start opens a checkout for one book when req.BookID is set, otherwise for
// the whole cart. The order total is fixed here. An earlier checkout of the
// same owner is forgotten; a Confirm already holding it still completes.
func (m *Manager) Start(ctx context.Context, cart Cart, req domain.CheckoutRequest) (*Session, error) {
	order, err := m.resolveOrder(ctx, cart, req)
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:         uuid.NewString(),
		owner:      req.Owner,
		cart:       cart,
		cfg:        m.cfg,
		newOrderID: m.newOrderID,
		now:        m.now,
		state:      domain.HandshakeIdle,
		order:      order,
		touched:    m.now(),
	}
	s.log = m.log.With("checkout_id", s.id)

	m.mu.Lock()
	if s.owner != "" {
		if prev, ok := m.owners[s.owner]; ok {
			delete(m.sessions, prev)
			s.log.DebugContext(ctx, "replaced open checkout", "previous_id", prev)
		}
		m.owners[s.owner] = s.id
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.log.InfoContext(ctx, "checkout started",
		"origin", order.Origin,
		"lines", len(order.Items),
		"total", order.TotalAmount.StringFixed(2))
	return s, nil
}

func (m *Manager) resolveOrder(ctx context.Context, cart Cart, req domain.CheckoutRequest) (domain.CheckoutOrder, error) {
	if req.BookID != nil {
		book, err := m.books.FindBookByID(ctx, *req.BookID)
		if errors.Is(err, catalog.ErrBookNotFound) {
			return domain.CheckoutOrder{}, fmt.Errorf("book %d: %w", *req.BookID, ErrBookNotFound)
		}
		if err != nil {
			return domain.CheckoutOrder{}, fmt.Errorf("failed to find book: %w", err)
		}
		items := []domain.CartLine{{Book: book, Quantity: 1}}
		return domain.CheckoutOrder{
			Items:       items,
			TotalAmount: domain.SumLines(items),
			Origin:      domain.OriginDirectBook,
		}, nil
	}

	items := slices.Clone(cart.Lines())
	if len(items) == 0 {
		return domain.CheckoutOrder{}, ErrEmptyCart
	}
	return domain.CheckoutOrder{
		Items:       items,
		TotalAmount: domain.SumLines(items),
		Origin:      domain.OriginCart,
	}, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Submit(ctx context.Context, id string, customer domain.CustomerDetails) (domain.PaymentRequest, string, error) {
	s, err := m.Get(id)
	if err != nil {
		return domain.PaymentRequest{}, "", err
	}
	return s.Submit(ctx, customer)
}

func (m *Manager) Cancel(ctx context.Context, id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	return s.Cancel(ctx)
}

// Confirm settles the session, forgets it and hands the order to every
// backend in the background.
func (m *Manager) Confirm(ctx context.Context, id, transactionID string) (domain.SettledOrder, error) {
	s, err := m.Get(id)
	if err != nil {
		return domain.SettledOrder{}, err
	}

	order, err := s.Confirm(ctx, transactionID)
	if err != nil {
		return domain.SettledOrder{}, err
	}

	m.Discard(id)
	m.dispatch(order)
	return order, nil
}

// Discard forgets a session, e.g. when the customer leaves checkout.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forget(id)
}

// Sweep forgets checkouts left in IDLE for longer than idle. A session
// showing a payment request is kept however old it is.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.idleBefore(cutoff) {
			m.forget(id)
			n++
		}
	}
	return n
}

// forget drops a session and its owner link. Callers hold m.mu.
func (m *Manager) forget(id string) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	delete(m.sessions, id)
	if s.owner != "" && m.owners[s.owner] == id {
		delete(m.owners, s.owner)
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Wait blocks until every background order dispatch has returned.
func (m *Manager) Wait() {
	m.dispatches.Wait()
}

func (m *Manager) dispatch(order domain.SettledOrder) {
	for _, b := range m.backends {
		m.dispatches.Add(1)
		go func(b OrderBackend) {
			defer m.dispatches.Done()

			ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DispatchTimeout)
			defer cancel()

			if err := b.SubmitOrder(ctx, order); err != nil {
				m.log.Error("order backend failed",
					"order_id", order.OrderID,
					"backend", fmt.Sprintf("%T", b),
					"error", err)
			}
		}(b)
	}
}
