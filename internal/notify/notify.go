package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/readify/storefront/pkg/logger"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Message is a short user-facing notice, shown as a toast by clients.
type Message struct {
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

func Success(text string) Message {
	return Message{Level: LevelSuccess, Text: text}
}

// Notifier accepts messages fire-and-forget. Implementations must not block
// for long and have no way to report failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

type discard struct{}

func (discard) Notify(context.Context, Message) {}

// Discard drops every message.
var Discard Notifier = discard{}

// LogNotifier writes messages to a structured logger.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrDefault(log)}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) {
	n.log.InfoContext(ctx, "notification", "level", msg.Level, "text", msg.Text)
}

// Multi fans a message out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) {
	for _, n := range m {
		n.Notify(ctx, msg)
	}
}

const defaultInboxCapacity = 50

// Inbox buffers messages per browser session until the client drains them.
// Each session keeps at most capacity messages; the oldest are dropped first.
type Inbox struct {
	mu       sync.Mutex
	capacity int
	messages map[string][]Message
	now      func() time.Time
}

func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = defaultInboxCapacity
	}
	return &Inbox{
		capacity: capacity,
		messages: make(map[string][]Message),
		now:      time.Now,
	}
}

// For returns a Notifier that delivers into the given session's inbox.
func (in *Inbox) For(sessionID string) Notifier {
	return sessionNotifier{inbox: in, sessionID: sessionID}
}

// Drain returns and forgets every pending message of a session.
func (in *Inbox) Drain(sessionID string) []Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	msgs := in.messages[sessionID]
	delete(in.messages, sessionID)
	if msgs == nil {
		return []Message{}
	}
	return msgs
}

// Sweep drops the inboxes whose newest message is older than idle and
// returns how many went. Undrained toasts of abandoned sessions go with them.
func (in *Inbox) Sweep(idle time.Duration) int {
	cutoff := in.now().Add(-idle)

	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for id, msgs := range in.messages {
		if len(msgs) == 0 || msgs[len(msgs)-1].At.Before(cutoff) {
			delete(in.messages, id)
			n++
		}
	}
	return n
}

// Len returns the number of sessions with pending messages.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.messages)
}

func (in *Inbox) push(sessionID string, msg Message) {
	if msg.At.IsZero() {
		msg.At = in.now()
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	msgs := append(in.messages[sessionID], msg)
	if len(msgs) > in.capacity {
		msgs = msgs[len(msgs)-in.capacity:]
	}
	in.messages[sessionID] = msgs
}

type sessionNotifier struct {
	inbox     *Inbox
	sessionID string
}

func (s sessionNotifier) Notify(_ context.Context, msg Message) {
	s.inbox.push(s.sessionID, msg)
}
