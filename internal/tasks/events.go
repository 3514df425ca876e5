package tasks

import (
	"sync"
	"time"

	"github.com/desertthunder/twx/internal/models"
)

// EventKind distinguishes the events published by favorite tasks.
type EventKind int

const (
	// EventStatusListChanged tells observers to re-read in-flight state and cached statuses.
	EventStatusListChanged EventKind = iota
	// EventFavoriteTask reports the terminal outcome of one favorite task.
	EventFavoriteTask
)

func (k EventKind) String() string {
	switch k {
	case EventStatusListChanged:
		return "status_list_changed"
	case EventFavoriteTask:
		return "favorite_task"
	default:
		return ""
	}
}

// Event is delivered to a [Sink].
//
// For [EventFavoriteTask], Finished is always true; Result is set when Succeeded and Message
// when not.
type Event struct {
	Kind       EventKind              `json:"-"`
	Action     models.DraftAction     `json:"action,omitempty"`
	AccountKey models.AccountKey      `json:"account_key"`
	StatusID   string                 `json:"status_id"`
	Finished   bool                   `json:"finished"`
	Succeeded  bool                   `json:"succeeded"`
	Result     *models.FavoriteResult `json:"result,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Time       time.Time              `json:"time"`
}

func statusListChanged(account models.AccountKey, statusID string) Event {
	return Event{Kind: EventStatusListChanged, AccountKey: account, StatusID: statusID, Time: time.Now()}
}

// Sink receives task events. Publish must not block.
type Sink interface {
	Publish(e Event)
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Bus fans events out to subscribers.
//
// Delivery is non-blocking: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size.
// The returned function unsubscribes and closes the channel; it is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber is behind; drop
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
