package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// subscriberBuffer absorbs a burst of logins or uploads without blocking
// the request that published them.
const subscriberBuffer = 100

type subscriber struct {
	ch    chan Event
	types []Type
}

func (s subscriber) wants(t Type) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// InMemoryBus fans session and dataset events out to in-process listeners.
// A full subscriber loses the event; Dropped counts those losses.
type InMemoryBus struct {
	mu          sync.RWMutex
	subscribers map[string]subscriber
	dropped     atomic.Int64
}

func NewBus() *InMemoryBus {
	return &InMemoryBus{subscribers: make(map[string]subscriber)}
}

func (b *InMemoryBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe delivers events of the given types, or every event when none
// are named. The returned func closes the channel.
func (b *InMemoryBus) Subscribe(types ...Type) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)
	b.subscribers[id] = subscriber{ch: ch, types: slices.Clone(types)}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subscribers, id)
			close(ch)
		})
	}

	return ch, unsubscribe
}

func (b *InMemoryBus) Dropped() int64 {
	return b.dropped.Load()
}
