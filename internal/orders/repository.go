package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/readify/storefront/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already recorded")
)

// EventOrderSettled is the outbox event type written for every settled order.
const EventOrderSettled = "OrderSettled"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is a row of the transactional outbox.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// OrderRecord is a settled order as stored.
type OrderRecord struct {
	domain.SettledOrder
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// EventStore is what the outbox poller needs from the repository.
type EventStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type OrderRepository interface {
	EventStore
	SubmitOrder(ctx context.Context, order domain.SettledOrder) error
	GetOrderByID(ctx context.Context, orderID string) (*OrderRecord, error)
	RunMigrations(*Credentials) error
	Close() error
}
